// Package validator checks decoded API requests against their struct tags.
package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wheelscan/go-wheel-trainer/internal/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// ValidateRequest returns a validation APIError naming every failing field,
// or nil when req is valid.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, describe(e))
	}
	return errors.NewValidationError(strings.Join(messages, "; "))
}

func describe(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "printascii":
		return fmt.Sprintf("%s must contain printable ASCII characters only", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}
