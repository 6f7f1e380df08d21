// Package service implements the account, blog, comment and tag use cases
// on top of store.Store. Services validate input, enforce ownership and
// translate store failures into internal/errors values before anything is
// written.
package service

import (
	"errors"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Guard messages.
const (
	MsgNoToken      = "Access denied. No token provided."
	MsgInvalidToken = "Invalid token."
	MsgTokenExpired = "Token expired."
	MsgStaleToken   = "Invalid token. User not found."
)

// checkID rejects identifiers that could never have been issued for prefix.
func checkID(prefix, raw string) error {
	if !id.Valid(prefix, raw) {
		return domainerrors.Validationf("Invalid id: %s", raw)
	}
	return nil
}

func requireIdentity(identity *Identity) error {
	if identity == nil {
		return domainerrors.Unauthorized(MsgNoToken)
	}
	return nil
}

// notFound maps a store miss to a domain NotFound carrying msg and passes
// every other error through.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg).WithCause(err)
	}
	return err
}

// ownerFlag is nil for anonymous viewers so the field is omitted.
func ownerFlag(viewer *Identity, authorID string) *bool {
	if viewer == nil {
		return nil
	}
	owned := authorID != "" && viewer.ID == authorID
	return &owned
}
