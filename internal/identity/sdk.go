// Package identity integrates the external sign-in SDK into the login page
// and degrades to a local account picker whenever the SDK cannot be used.
package identity

import (
	"errors"
	"html/template"
)

var (
	// ErrNotInitialized is returned by RenderButton before Initialize.
	ErrNotInitialized = errors.New("identity sdk not initialized")
	// ErrMissingClientID is returned by Initialize without a client id.
	ErrMissingClientID = errors.New("identity sdk client id not configured")
)

// SDKConfig is passed to SDK.Initialize. LoginURI is where the SDK delivers
// the credential once the user completes sign-in.
type SDKConfig struct {
	ClientID       string
	LoginURI       string
	UXMode         string
	PromptParentID string
}

// Mount names the page elements the sign-in affordance attaches to.
type Mount struct {
	ContainerID string
	ElementID   string
}

// ButtonOptions are the presentation options of the sign-in button.
type ButtonOptions struct {
	Type          string
	Theme         string
	Size          string
	Width         string
	Text          string
	Shape         string
	LogoAlignment string
}

// DefaultButtonOptions matches the login page layout.
func DefaultButtonOptions() ButtonOptions {
	return ButtonOptions{
		Type:          "standard",
		Theme:         "outline",
		Size:          "large",
		Width:         "400",
		Text:          "signin_with",
		Shape:         "pill",
		LogoAlignment: "left",
	}
}

// SDK is the external identity SDK as seen by the bridge.
type SDK interface {
	Initialize(cfg SDKConfig) error
	RenderButton(mount Mount, opts ButtonOptions) (template.HTML, error)
}
