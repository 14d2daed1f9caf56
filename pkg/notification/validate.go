package notification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError reports a structurally invalid request. It is the only
// failure that rejects a dispatch before any work is done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the required fields and fills in the default type.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return &ValidationError{Field: "request", Reason: err.Error()}
	}
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Reason: "is required"}
	}
	if strings.TrimSpace(r.Type) == "" {
		r.Type = GenericType
	}
	return nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "RecipientEmails":
		return &ValidationError{Field: "recipient_emails", Reason: "must be a non-empty list"}
	case "Message":
		return &ValidationError{Field: "message", Reason: "is required"}
	default:
		return &ValidationError{Field: fe.Field(), Reason: fe.Tag()}
	}
}
