package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

func TestFailureStatusMapping(t *testing.T) {
	errNotFound := errors.New("inquiry not found")
	_, terminal := lifecycle.Inquiry.Apply(lifecycle.InquiryConverted, lifecycle.ActionQualify, lifecycle.Payload{}, time.Now())
	_, illegal := lifecycle.Inquiry.Apply(lifecycle.InquiryNew, lifecycle.ActionConvert, lifecycle.Payload{}, time.Now())
	noReason := lifecycle.Inquiry.Validate(lifecycle.ActionDisqualify, lifecycle.Payload{})

	tests := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"not found", fmt.Errorf("inquiries: get: %w", errNotFound), http.StatusNotFound, ""},
		{"validation", validate.Field("name", "name is required"), http.StatusUnprocessableEntity, "name"},
		{"reason", noReason, http.StatusUnprocessableEntity, "reason"},
		{"terminal", terminal, http.StatusConflict, ""},
		{"illegal", illegal, http.StatusConflict, ""},
		{"version", storage.ErrVersionConflict, http.StatusConflict, ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Failure(rec, logging.NewWithWriter(io.Discard, "error"), tt.err, errNotFound)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			if tt.field != "" {
				require.NotNil(t, body.Details)
				assert.Equal(t, tt.field, body.Details.Field)
			}
		})
	}
}

func TestFailureHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Failure(rec, nil, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
