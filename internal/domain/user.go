package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// User is a registered account. Users are never deleted.
type User struct {
	Record
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// UserSummary is the public projection of a user embedded in blogs and comments.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameKey returns the case-folded form of a username.
// Two usernames with the same key are considered the same user name.
func UsernameKey(username string) string {
	return cases.Fold().String(strings.TrimSpace(username))
}
