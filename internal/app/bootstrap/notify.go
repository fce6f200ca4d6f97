package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/careflow/internal/config"
	"github.com/wolfman30/careflow/internal/notify"
	"github.com/wolfman30/careflow/internal/uploads"
	"github.com/wolfman30/careflow/pkg/logging"
)

// BuildEmailSender selects the provider named by EMAIL_PROVIDER. "log" and
// an empty value keep e-mail local to the log.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "", "log":
		return notify.NewLogSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY")
		}
		logger.Info("email provider configured", "provider", "sendgrid")
		return sender, nil
	case "ses":
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses requires AWS configuration")
		}
		if strings.TrimSpace(cfg.SESFromEmail) == "" {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses requires SES_FROM_EMAIL")
		}
		logger.Info("email provider configured", "provider", "ses")
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// BuildUploads wires presigned uploads. Without a bucket or AWS config the
// service reports itself disabled.
func BuildUploads(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *uploads.Service {
	ucfg := uploads.Config{
		Bucket:   cfg.UploadsBucket,
		MaxBytes: cfg.UploadMaxBytes,
		URLTTL:   cfg.UploadURLTTL,
	}
	if awsCfg == nil || strings.TrimSpace(cfg.UploadsBucket) == "" {
		return uploads.NewService(nil, ucfg, logger)
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		// Local S3 emulators only serve path-style URLs.
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return uploads.NewService(s3.NewPresignClient(client), ucfg, logger)
}
