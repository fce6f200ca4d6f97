package respond

import (
	"errors"
	"net/http"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/internal/validate"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Failure maps a service error onto the HTTP error contract. Errors matching
// any of notFound produce a 404.
func Failure(w http.ResponseWriter, logger *logging.Logger, err error, notFound ...error) {
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			Error(w, http.StatusNotFound, err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, validate.ErrInvalid):
		Validation(w, err)
	case errors.Is(err, lifecycle.ErrUnknownAction):
		Validation(w, validate.Field("action", err.Error()))
	case errors.Is(err, lifecycle.ErrReasonRequired):
		Validation(w, validate.Field("reason", err.Error()))
	case errors.Is(err, lifecycle.ErrActorRequired):
		Validation(w, validate.Field("actor", err.Error()))
	case lifecycle.IsRejection(err), errors.Is(err, storage.ErrVersionConflict):
		Error(w, http.StatusConflict, err.Error())
	default:
		if logger == nil {
			logger = logging.Default()
		}
		logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
