package identity

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

var googleButtonTemplate = template.Must(template.New("gsi").Parse(
	`<div id="g_id_onload"` +
		` data-client_id="{{.Config.ClientID}}"` +
		` data-login_uri="{{.Config.LoginURI}}"` +
		` data-ux_mode="{{.Config.UXMode}}"` +
		`{{if .Config.PromptParentID}} data-prompt_parent_id="{{.Config.PromptParentID}}"{{end}}` +
		` data-auto_prompt="false"></div>` +
		`<div class="g_id_signin" id="{{.Mount.ElementID}}"` +
		` data-type="{{.Options.Type}}"` +
		` data-theme="{{.Options.Theme}}"` +
		` data-size="{{.Options.Size}}"` +
		` data-width="{{.Options.Width}}"` +
		` data-text="{{.Options.Text}}"` +
		` data-shape="{{.Options.Shape}}"` +
		` data-logo_alignment="{{.Options.LogoAlignment}}"></div>`,
))

// GoogleSDK renders Google Identity Services markup. The GIS script reads
// the data attributes and posts the credential to the login URI.
type GoogleSDK struct {
	mu          sync.RWMutex
	cfg         SDKConfig
	initialized bool
}

// NewGoogleSDK creates an uninitialized GoogleSDK.
func NewGoogleSDK() *GoogleSDK {
	return &GoogleSDK{}
}

// Initialize stores the configuration used by RenderButton.
func (g *GoogleSDK) Initialize(cfg SDKConfig) error {
	if cfg.ClientID == "" {
		return ErrMissingClientID
	}
	if cfg.UXMode == "" {
		cfg.UXMode = "popup"
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.cfg = cfg
	g.initialized = true
	return nil
}

// RenderButton returns the sign-in markup for mount.
func (g *GoogleSDK) RenderButton(mount Mount, opts ButtonOptions) (template.HTML, error) {
	g.mu.RLock()
	cfg, ok := g.cfg, g.initialized
	g.mu.RUnlock()

	if !ok {
		return "", ErrNotInitialized
	}
	if mount.ElementID == "" {
		return "", fmt.Errorf("render sign-in button: mount element id is empty")
	}

	var buf bytes.Buffer
	err := googleButtonTemplate.Execute(&buf, struct {
		Config  SDKConfig
		Mount   Mount
		Options ButtonOptions
	}{cfg, mount, opts})
	if err != nil {
		return "", fmt.Errorf("render sign-in button: %w", err)
	}

	return template.HTML(buf.String()), nil
}
