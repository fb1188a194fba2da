// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The stable
// code comes from the shared taxonomy; unexpected errors are reported as a
// generic internal problem without leaking detail.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Problem(w, http.StatusBadRequest, "Validation Failed", verrs.Error(), "VALIDATION_ERROR")
		return
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error(), shared.CodeOf(err))
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error(), shared.CodeOf(err))
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error(), shared.CodeOf(err))
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State Transition", err.Error(), shared.CodeOf(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "", "INTERNAL")
	}
}
