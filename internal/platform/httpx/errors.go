package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/keygate/keygate/internal/shared"
)

// RespondError maps domain errors to envelope responses. Lookup failures and
// duplicates surface as 400, authentication failures as 401, anything
// unexpected as an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrInvalidToken):
		Failure(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, shared.ErrDuplicateEmail),
		errors.Is(err, shared.ErrDuplicateName),
		errors.Is(err, shared.ErrUnknownUser),
		errors.Is(err, shared.ErrUnknownRole),
		errors.Is(err, shared.ErrUnknownPermission),
		errors.Is(err, shared.ErrNotFound):
		Failure(w, http.StatusBadRequest, err.Error())
	default:
		Failure(w, http.StatusInternalServerError, "Server Error")
	}
}

// FirstValidationError renders the first field error of a validator result,
// mirroring the convention of returning a single validation message.
func FirstValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request body"
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("The %s field is invalid", field)
	}
}
