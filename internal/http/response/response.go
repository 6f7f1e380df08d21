// Package response writes JSON responses for handlers that live outside the
// huma operation pipeline (router fallbacks, router-level middleware).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// MsgUnexpected is the only message a client sees for an unclassified failure.
const MsgUnexpected = "An unexpected error occurred"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 OK response.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an error body. The code is derived from the status.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, ErrorBody{
		Message: message,
		Code:    string(domainerrors.CodeForStatus(status)),
	}, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, MsgUnexpected, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors keep their status and message; anything else is
// logged and reported as a generic 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if body, status, ok := Classify(err); ok {
		JSON(w, status, body, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	InternalError(w, logger)
}

// Classify maps a known error to its response body and status.
// ok is false for errors that must not be shown to clients.
func Classify(err error) (body ErrorBody, status int, ok bool) {
	if domainErr, found := domainerrors.From(err); found && domainErr.Code != domainerrors.CodeInternal {
		return ErrorBody{
			Message: domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		}, domainErr.HTTPStatus(), true
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
		return ErrorBody{
			Message: storeErr.Message,
			Code:    string(domainerrors.CodeForStatus(storeErr.HTTPCode())),
		}, storeErr.HTTPCode(), true
	}

	return ErrorBody{}, 0, false
}
