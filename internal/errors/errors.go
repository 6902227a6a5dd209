package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "not_found_error"
	ErrorTypeTooLarge      ErrorType = "payload_too_large_error"
	ErrorTypeInternal      ErrorType = "internal_error"
	ErrorTypeExternal      ErrorType = "external_error"
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeUnavailable   ErrorType = "unavailable_error"
)

// APIError represents a structured API error
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse is the JSON body written for failed requests. The top-level
// message mirrors the success body so the capture UI reads one field either way.
type ErrorResponse struct {
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}

// NewAPIError creates a new APIError
func NewAPIError(errorType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
	}
}

// NewAPIErrorWithCode creates a new APIError with a code
func NewAPIErrorWithCode(errorType ErrorType, message, code string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
		Code:    code,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(errorType ErrorType, message, details string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
		Details: details,
	}
}

// HandleError writes a standardized error response to the HTTP response writer
func HandleError(w http.ResponseWriter, err error, statusCode int) {
	var apiError *APIError
	if !stderrors.As(err, &apiError) {
		apiError = inferErrorType(err, statusCode)
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(statusCode)

	response := ErrorResponse{Message: apiError.Message, Error: *apiError}
	if jsonBytes, jsonErr := json.Marshal(response); jsonErr == nil {
		_, _ = w.Write(jsonBytes)
	} else {
		logger.Error("Error marshaling error response", "error", jsonErr)
		_, _ = w.Write([]byte(`{"message":"Internal server error","error":{"type":"internal_error","message":"Internal server error"}}`))
	}

	logger.Warn("API Error",
		"status_code", statusCode,
		"error_type", string(apiError.Type),
		"message", apiError.Message,
	)
}

// inferErrorType maps a plain error to an APIError based on the status code
func inferErrorType(err error, statusCode int) *APIError {
	message := err.Error()

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewAPIError(ErrorTypeValidation, message)
	case http.StatusNotFound:
		return NewAPIError(ErrorTypeNotFound, message)
	case http.StatusRequestEntityTooLarge:
		return NewAPIError(ErrorTypeTooLarge, message)
	case http.StatusServiceUnavailable:
		return NewAPIError(ErrorTypeUnavailable, message)
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return NewAPIError(ErrorTypeExternal, message)
	default:
		return NewAPIError(ErrorTypeInternal, message)
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrorTypeValidation, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *APIError {
	return NewAPIError(ErrorTypeNotFound, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *APIError {
	return NewAPIError(ErrorTypeConfiguration, message)
}

// NewUnavailableError reports a disabled or unreachable dependency
func NewUnavailableError(message string) *APIError {
	return NewAPIError(ErrorTypeUnavailable, message)
}
