package serverutils

import (
	"fmt"

	"ai-filesearch-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts the first failure
// into a ValidationError so the error middleware renders a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
			fe := fieldErrors[0]
			return apperror.NewValidation("field '%s' failed on '%s' rule", fe.Field(), fe.Tag())
		}
		return &apperror.ValidationError{Message: fmt.Sprintf("invalid request: %v", err)}
	}
	return nil
}
