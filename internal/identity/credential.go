package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/signin-portal/internal/models"
)

// ErrMalformedCredential is returned when a credential cannot be decoded into
// a user record.
var ErrMalformedCredential = errors.New("malformed identity credential")

// credentialClaims is the payload the SDK issues for a signed-in user.
type credentialClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// segmentParser decodes base64url token segments, padded or not.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeCredential extracts the user from a signed identity token. Only the
// payload segment is read: the header and signature are NOT checked, the
// token is trusted as delivered by the SDK.
func DecodeCredential(credential string) (models.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return models.User{}, fmt.Errorf("%w: empty credential", ErrMalformedCredential)
	}

	parts := strings.Split(credential, ".")
	if len(parts) < 2 {
		return models.User{}, fmt.Errorf("%w: no payload segment", ErrMalformedCredential)
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	var claims credentialClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	user := models.User{
		Email:      claims.Email,
		Name:       claims.Name,
		Picture:    claims.Picture,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}
	if err := user.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	return user, nil
}
