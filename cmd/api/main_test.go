package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/careflow/internal/config"
	"github.com/wolfman30/careflow/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Env:                  "development",
		AdminJWTSecret:       "secret",
		EmailProvider:        "log",
		InquiryRatePerMinute: 60,
		InquiryBurst:         5,
		ShutdownTimeout:      time.Second,
	}
}

func TestSetupInMemoryServesHealthAndMetrics(t *testing.T) {
	handler, cleanup, err := setup(context.Background(), testConfig(), logging.New("error"))
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSetupWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	handler, cleanup, err := setup(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, handler)
}

func TestSetupRejectsMissingSecretInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.AdminJWTSecret = ""

	_, _, err := setup(context.Background(), cfg, logging.New("error"))
	assert.ErrorContains(t, err, "ADMIN_JWT_SECRET")
}

func TestSetupRejectsUnknownEmailProvider(t *testing.T) {
	cfg := testConfig()
	cfg.EmailProvider = "carrier-pigeon"

	_, _, err := setup(context.Background(), cfg, logging.New("error"))
	assert.ErrorContains(t, err, "unknown EMAIL_PROVIDER")
}
