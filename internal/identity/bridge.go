package identity

import (
	"context"
	"html/template"
	"time"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/models"
)

// DefaultReadyTimeout bounds how long a view waits for the SDK.
const DefaultReadyTimeout = 2 * time.Second

// Reason explains why the SDK path was not used.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotConfigured
	ReasonScriptUnavailable
	ReasonSDKUnavailable
	ReasonTimeout
	ReasonCanceled
	ReasonMalformedCredential
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotConfigured:
		return "not_configured"
	case ReasonScriptUnavailable:
		return "script_unavailable"
	case ReasonSDKUnavailable:
		return "sdk_unavailable"
	case ReasonTimeout:
		return "timeout"
	case ReasonCanceled:
		return "canceled"
	case ReasonMalformedCredential:
		return "malformed_credential"
	default:
		return "unknown"
	}
}

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	ClientID     string
	ScriptURL    string
	LoginURI     string
	UXMode       string
	ReadyTimeout time.Duration
}

// Presentation is what the login page shows. Either Button is set, or
// ShowFallback is true and Reason says why.
type Presentation struct {
	Button       template.HTML
	ScriptURL    string
	ShowFallback bool
	Reason       Reason
}

// Outcome is the result of completing a sign-in.
type Outcome struct {
	User   models.User
	Reason Reason
	Err    error
}

// OK reports whether the outcome carries a user.
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// Bridge drives the SDK for login views and turns SDK credentials into users.
type Bridge struct {
	sdk     SDK
	loader  ScriptLoader
	cfg     BridgeConfig
	options ButtonOptions
	logger  *common.Logger
}

// NewBridge creates a bridge. A non-positive ReadyTimeout uses DefaultReadyTimeout.
func NewBridge(sdk SDK, loader ScriptLoader, cfg BridgeConfig, logger *common.Logger) *Bridge {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	return &Bridge{
		sdk:     sdk,
		loader:  loader,
		cfg:     cfg,
		options: DefaultButtonOptions(),
		logger:  logger,
	}
}

// Configured reports whether a client id and script URL are present.
func (b *Bridge) Configured() bool {
	return b.cfg.ClientID != "" && b.cfg.ScriptURL != ""
}

// Start resolves what the view should present. The returned channel yields
// exactly one Presentation and is then closed.
func (b *Bridge) Start(view *View) <-chan Presentation {
	out := make(chan Presentation, 1)

	if !b.Configured() {
		b.logger.Info().Msg("identity sdk not configured, showing account picker")
		out <- fallback(ReasonNotConfigured)
		close(out)
		return out
	}

	go func() {
		defer close(out)
		out <- b.present(view)
	}()
	return out
}

func (b *Bridge) present(view *View) Presentation {
	start := time.Now()
	ctx, cancel := context.WithTimeout(view.Context(), b.cfg.ReadyTimeout)
	defer cancel()

	if err := b.loader.Load(ctx); err != nil {
		if ctx.Err() != nil {
			return b.abandon(view, start)
		}
		b.logger.Warn().Err(err).Str("script_url", b.cfg.ScriptURL).Msg("identity sdk script failed to load, showing account picker")
		return fallback(ReasonScriptUnavailable)
	}

	select {
	case <-view.Mounted():
	case <-ctx.Done():
		return b.abandon(view, start)
	}

	err := b.sdk.Initialize(SDKConfig{
		ClientID:       b.cfg.ClientID,
		LoginURI:       b.cfg.LoginURI,
		UXMode:         b.cfg.UXMode,
		PromptParentID: view.MountPoint().ContainerID,
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("identity sdk initialization failed, showing account picker")
		return fallback(ReasonSDKUnavailable)
	}

	button, err := b.sdk.RenderButton(view.MountPoint(), b.options)
	if err != nil {
		b.logger.Warn().Err(err).Msg("identity sdk failed to render sign-in button, showing account picker")
		return fallback(ReasonSDKUnavailable)
	}

	if ctx.Err() != nil {
		return b.abandon(view, start)
	}

	b.logger.Debug().Dur("elapsed", time.Since(start)).Msg("identity sdk ready")
	return Presentation{Button: button, ScriptURL: b.cfg.ScriptURL}
}

// abandon classifies a done context: the view went away, or the readiness
// timer fired first.
func (b *Bridge) abandon(view *View, start time.Time) Presentation {
	if view.Context().Err() != nil {
		b.logger.Debug().Msg("login view unmounted before identity sdk was ready")
		return fallback(ReasonCanceled)
	}
	b.logger.Warn().Dur("elapsed", time.Since(start)).Msg("identity sdk not ready in time, showing account picker")
	return fallback(ReasonTimeout)
}

// Complete turns a credential delivered by the SDK into a user.
func (b *Bridge) Complete(credential string) Outcome {
	user, err := DecodeCredential(credential)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode identity credential")
		return Outcome{Reason: ReasonMalformedCredential, Err: err}
	}
	return Outcome{User: user}
}

func fallback(reason Reason) Presentation {
	return Presentation{ShowFallback: true, Reason: reason}
}
