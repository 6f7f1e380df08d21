package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a persistence error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	// generic marks the base sentinels (ErrNotFound, ErrAlreadyExists) that
	// every more specific error with the same Code matches via errors.Is.
	generic bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets specific errors match their generic sentinel:
// errors.Is(ErrBlogNotFound, ErrNotFound) is true,
// errors.Is(ErrBlogNotFound, ErrUserNotFound) is not.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.generic && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Generic sentinels.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
		generic: true,
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
		generic: true,
	}
)

// Entity-specific errors.
var (
	ErrUserNotFound    = ErrNotFound.WithMessage("user not found")
	ErrBlogNotFound    = ErrNotFound.WithMessage("blog not found")
	ErrCommentNotFound = ErrNotFound.WithMessage("comment not found")
	ErrTagNotFound     = ErrNotFound.WithMessage("tag not found")

	ErrEmailExists    = ErrAlreadyExists.WithMessage("email already exists")
	ErrUsernameExists = ErrAlreadyExists.WithMessage("username already exists")
	ErrTagExists      = ErrAlreadyExists.WithMessage("tag already exists")
)
