// Package uploads issues presigned S3 URLs for portal document uploads.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("uploads: not configured")

const (
	DefaultMaxBytes = 10 << 20
	DefaultURLTTL   = 15 * time.Minute
)

var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/heic":      ".heic",
}

// Presigner is the subset of s3.PresignClient used by Service.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Request describes the file a portal user wants to upload.
type Request struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// Ticket tells the client where and how to PUT the file.
type Ticket struct {
	Key       string            `json:"key"`
	URL       string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Config holds upload limits.
type Config struct {
	Bucket   string
	MaxBytes int64
	URLTTL   time.Duration
}

// Service validates upload requests and presigns them.
type Service struct {
	presigner Presigner
	cfg       Config
	now       func() time.Time
	logger    *logging.Logger
}

func NewService(presigner Presigner, cfg Config, logger *logging.Logger) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = DefaultURLTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{presigner: presigner, cfg: cfg, now: time.Now, logger: logger}
}

// Enabled reports whether a bucket and presigner are configured.
func (s *Service) Enabled() bool {
	return s != nil && s.cfg.Bucket != "" && s.presigner != nil
}

// Validate checks the request against the allowlist and size limit.
func (s *Service) Validate(req Request) error {
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	if err := validate.Required("fileName", strings.TrimSpace(req.FileName)); err != nil {
		return err
	}
	if _, ok := allowedTypes[req.ContentType]; !ok {
		return validate.Field("contentType", "must be one of application/pdf, image/jpeg, image/png, image/heic")
	}
	if req.SizeBytes <= 0 {
		return validate.Field("sizeBytes", "must be positive")
	}
	if req.SizeBytes > s.cfg.MaxBytes {
		return validate.Field("sizeBytes", fmt.Sprintf("must not exceed %d bytes", s.cfg.MaxBytes))
	}
	return nil
}

// Presign returns a PUT URL for a file owned by subject.
func (s *Service) Presign(ctx context.Context, subject string, req Request) (Ticket, error) {
	if !s.Enabled() {
		return Ticket{}, ErrDisabled
	}
	if err := s.Validate(req); err != nil {
		return Ticket{}, err
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	now := s.now().UTC()
	key := ObjectKey(subject, req.FileName, contentType, now)

	out, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(req.SizeBytes),
	}, s3.WithPresignExpires(s.cfg.URLTTL))
	if err != nil {
		return Ticket{}, fmt.Errorf("uploads: presign %s: %w", key, err)
	}

	headers := map[string]string{"Content-Type": contentType}
	for name, values := range out.SignedHeader {
		if len(values) > 0 && !strings.EqualFold(name, "host") {
			headers[name] = values[0]
		}
	}
	s.logger.Info("upload presigned", "subject", subject, "key", key, "size", req.SizeBytes)
	return Ticket{
		Key:       key,
		URL:       out.URL,
		Method:    out.Method,
		Headers:   headers,
		ExpiresAt: now.Add(s.cfg.URLTTL),
	}, nil
}

// ObjectKey builds documents/<subject>/<yyyy>/<mm>/<uuid>-<name><ext>.
func ObjectKey(subject, fileName, contentType string, at time.Time) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(fileName, `\`, "/")), path.Ext(fileName))
	name := slug.Make(base)
	if name == "" {
		name = "file"
	}
	owner := slug.Make(subject)
	if owner == "" {
		owner = "anonymous"
	}
	return fmt.Sprintf("documents/%s/%04d/%02d/%s-%s%s",
		owner, at.Year(), at.Month(), uuid.NewString(), name, allowedTypes[contentType])
}
