package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wheelscan/go-wheel-trainer/internal/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// Validate checks cfg and returns a configuration APIError describing every
// failing field.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validator errors into APIError
func formatValidationError(err error) *errors.APIError {
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return errors.NewConfigurationError(fmt.Sprintf("Configuration validation failed: %s", strings.Join(messages, "; ")))
	}
	return errors.NewConfigurationError(fmt.Sprintf("Configuration validation failed: %s", err.Error()))
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "required_with":
		return fmt.Sprintf("field '%s' is required when %s is set", field, e.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "min", "gte", "gt":
		return fmt.Sprintf("field '%s' must be at least %s", field, valueOrZero(e.Param()))
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "gtfield":
		return fmt.Sprintf("field '%s' must be greater than %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", field, e.Tag())
	}
}

func valueOrZero(param string) string {
	if param == "" {
		return "0"
	}
	return param
}
