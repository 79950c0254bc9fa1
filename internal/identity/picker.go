package identity

import (
	"errors"
	"strings"

	"github.com/bobmcallan/signin-portal/internal/models"
)

// ErrUnknownAccount is returned when selecting an email the picker does not offer.
var ErrUnknownAccount = errors.New("account is not offered by the picker")

// Picker is the local fallback used when the identity SDK is unavailable.
type Picker struct {
	emails []string
}

// NewPicker offers the given emails, in order. Blank entries and duplicates
// are dropped.
func NewPicker(emails []string) *Picker {
	seen := make(map[string]bool, len(emails))
	p := &Picker{}
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		p.emails = append(p.emails, e)
	}
	return p
}

// Accounts returns the offered emails.
func (p *Picker) Accounts() []string {
	out := make([]string, len(p.emails))
	copy(out, p.emails)
	return out
}

// Select returns the user for an offered email, named after its local part.
func (p *Picker) Select(email string) (models.User, error) {
	email = strings.TrimSpace(email)
	for _, e := range p.emails {
		if e == email {
			return models.User{Email: e, Name: models.LocalPart(e)}, nil
		}
	}
	return models.User{}, ErrUnknownAccount
}
