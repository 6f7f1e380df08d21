package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/http/response"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Message string `json:"message" doc:"Human-readable error message"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before serving requests.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if body, code, ok := response.Classify(err); ok {
				return &APIError{status: code, Message: body.Message, Code: body.Code, Details: body.Details}
			}
		}

		// Schema validation failures are reported like service validation:
		// 400 with the first failing field as the message.
		if status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && hasErrorDetail(errs)) {
			return schemaError(message, errs)
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("unexpected error", "status", status, "message", message, "error", errors.Join(errs...))
			}
			return &APIError{
				status:  http.StatusInternalServerError,
				Message: response.MsgUnexpected,
				Code:    string(domainerrors.CodeInternal),
			}
		}

		return &APIError{
			status:  status,
			Message: message,
			Code:    string(domainerrors.CodeForStatus(status)),
		}
	}
}

func hasErrorDetail(errs []error) bool {
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			return true
		}
	}
	return false
}

// schemaError converts huma's per-field details into a validation error.
func schemaError(message string, errs []error) *APIError {
	fields := make([]validation.FieldError, 0, len(errs))
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			continue
		}
		field := fieldName(detail.Location)
		msg := detail.Message
		if field != "" {
			msg = field + ": " + detail.Message
		}
		fields = append(fields, validation.FieldError{Field: field, Message: msg})
	}

	apiErr := &APIError{
		status:  http.StatusBadRequest,
		Message: message,
		Code:    string(domainerrors.CodeValidation),
	}
	if len(fields) > 0 {
		apiErr.Message = fields[0].Message
		apiErr.Details = fields
	}
	return apiErr
}

// fieldName turns a huma location such as "body.title" or "query.limit"
// into the bare field name.
func fieldName(location string) string {
	_, field, found := strings.Cut(location, ".")
	if !found {
		return ""
	}
	return field
}
