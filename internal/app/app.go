// Package app wires configuration, storage, sessions and handlers together.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/config"
	"github.com/bobmcallan/signin-portal/internal/guard"
	"github.com/bobmcallan/signin-portal/internal/handlers"
	"github.com/bobmcallan/signin-portal/internal/identity"
	"github.com/bobmcallan/signin-portal/internal/interfaces"
	"github.com/bobmcallan/signin-portal/internal/session"
	"github.com/bobmcallan/signin-portal/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	Sessions *session.Manager
	Bridge   *identity.Bridge
	Picker   *identity.Picker
	Guard    *guard.Guard

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	AuthHandler      *handlers.AuthHandler
	DashboardHandler *handlers.DashboardHandler
	SessionHandler   *handlers.SessionHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	// Validate environment setting
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	a.Storage = store

	a.Sessions = session.NewManager(store.KeyValueStorage(), logger, session.ManagerOptions{
		HydrateTimeout: cfg.Session.GetHydrateTimeout(),
		CacheTTL:       cfg.Session.GetCacheTTL(),
		MaxEntries:     cfg.Session.CacheMaxEntries,
	})

	a.initIdentity()
	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initIdentity builds the sign-in bridge and the fallback picker.
func (a *App) initIdentity() {
	id := a.Config.Identity

	loader := identity.NewHTTPScriptLoader(id.ScriptURL, nil, id.GetRetryAfter())
	a.Bridge = identity.NewBridge(identity.NewGoogleSDK(), loader, identity.BridgeConfig{
		ClientID:     id.ClientID,
		ScriptURL:    id.ScriptURL,
		LoginURI:     id.LoginURI,
		UXMode:       id.UXMode,
		ReadyTimeout: id.GetReadyTimeout(),
	}, a.Logger)
	a.Picker = identity.NewPicker(a.Config.Login.FallbackEmails)

	if !a.Bridge.Configured() {
		a.Logger.Info().Msg("identity client id or script url not set, login will use the account picker")
	}
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	devMode := a.Config.IsDevMode()

	a.PageHandler = handlers.NewPageHandler(a.Logger, devMode)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Sessions)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.AuthHandler = handlers.NewAuthHandler(a.Logger, devMode, a.Bridge, a.Picker)
	a.DashboardHandler = handlers.NewDashboardHandler(a.Logger, devMode)
	a.SessionHandler = handlers.NewSessionHandler(a.Logger, a.Config.Session.GetReadyWait())

	a.Guard = guard.New(a.Logger, "/login", a.Config.Session.GetReadyWait(), http.HandlerFunc(a.PageHandler.ServeLoading))

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
