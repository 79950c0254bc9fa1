package models

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMissingEmail is returned for a user record without an email address.
var ErrMissingEmail = errors.New("user record requires a non-empty email")

// DefaultInitial is shown when a user has neither a name nor an email.
const DefaultInitial = "U"

// User is the authenticated user record. It is either absent or carries a
// non-empty Email.
type User struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// Validate checks the record invariant.
func (u *User) Validate() error {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}

// Initial returns the upper-cased first letter of the name, else of the
// email, else DefaultInitial. A nil user yields DefaultInitial.
func (u *User) Initial() string {
	if u == nil {
		return DefaultInitial
	}
	for _, s := range []string{u.Name, u.Email} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r))
	}
	return DefaultInitial
}

// DisplayName returns the name when set, otherwise the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Clone returns a copy that shares no state with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// LocalPart returns the part of an email address before the "@".
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
