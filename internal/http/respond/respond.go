// Package respond writes the JSON bodies shared by every API handler.
package respond

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/careflow/internal/validate"
)

// ErrorBody is the error envelope consumed by the UI.
type ErrorBody struct {
	Error   string        `json:"error"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries field-level validation feedback.
type ErrorDetails struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// Validation writes a 422 with field details when err carries them.
func Validation(w http.ResponseWriter, err error) {
	body := ErrorBody{Error: "validation failed", Details: &ErrorDetails{Message: err.Error()}}
	if fe, ok := validate.AsField(err); ok {
		body.Details = &ErrorDetails{Message: fe.Message, Field: fe.Field}
	}
	JSON(w, http.StatusUnprocessableEntity, body)
}

// Decode reads a JSON request body, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// SetETag exposes a record version as a strong ETag.
func SetETag(w http.ResponseWriter, version int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(version)))
}

// IfMatchVersion reads the version from an If-Match header. ok is false when
// the header is absent or "*".
func IfMatchVersion(r *http.Request) (version int, ok bool, err error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return 0, false, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	if unquoted, uerr := strconv.Unquote(raw); uerr == nil {
		raw = unquoted
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false, validate.Field("If-Match", "must carry a record version")
	}
	return v, true, nil
}

// ExpectedVersion merges the If-Match header with a version from the body.
// The header wins when both are present.
func ExpectedVersion(r *http.Request, bodyVersion int) (int, error) {
	v, ok, err := IfMatchVersion(r)
	if err != nil {
		return 0, err
	}
	if ok {
		return v, nil
	}
	if bodyVersion < 0 {
		return 0, validate.Field("version", "must be positive")
	}
	return bodyVersion, nil
}
