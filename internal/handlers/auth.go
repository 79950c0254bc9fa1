package handlers

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"strings"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/identity"
	"github.com/bobmcallan/signin-portal/internal/models"
	"github.com/bobmcallan/signin-portal/internal/session"
)

// Mount point of the sign-in affordance on the login page.
var signInMount = identity.Mount{
	ContainerID: "google-signin-container",
	ElementID:   "google-signin-button",
}

// Cookie and form field the identity SDK uses for its own double-submit check.
const sdkCSRFField = "g_csrf_token"

// AccountOption is one entry of the fallback account picker.
type AccountOption struct {
	Email   string
	Initial string
}

// AuthHandler serves the login page and completes sign-ins.
type AuthHandler struct {
	logger    *common.Logger
	templates *template.Template
	devMode   bool
	bridge    *identity.Bridge
	picker    *identity.Picker
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(logger *common.Logger, devMode bool, bridge *identity.Bridge, picker *identity.Picker) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		templates: loadTemplates(),
		devMode:   devMode,
		bridge:    bridge,
		picker:    picker,
	}
}

// ServeLogin renders GET /login. The identity SDK is offered when it becomes
// ready in time; otherwise the account picker is shown. ?dismiss=1 hides
// the picker.
func (h *AuthHandler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	view := identity.NewView(r.Context())
	defer view.Unmount()

	pending := h.bridge.Start(view)
	view.Mount(signInMount)
	presentation := <-pending

	dismissed := r.URL.Query().Get("dismiss") == "1"
	h.renderLogin(w, r, http.StatusOK, presentation, dismissed, "")
}

// HandleSelect handles POST /login/select from the fallback picker.
func (h *AuthHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderFallback(w, r, http.StatusBadRequest, identity.ReasonNone, "The request could not be read. Choose an account below.")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	user, err := h.picker.Select(email)
	if err != nil {
		if h.logger != nil {
			h.logger.ForRequest(r.Context()).Warn().Str("email", email).Err(err).Msg("picker selection rejected")
		}
		h.renderFallback(w, r, http.StatusBadRequest, identity.ReasonNone, "That account is not available. Choose an account below.")
		return
	}

	h.signIn(w, r, user, "picker")
}

// HandleCredential handles POST /auth/google/callback, where the identity
// SDK delivers the signed-in user's credential.
func (h *AuthHandler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderFallback(w, r, http.StatusOK, identity.ReasonMalformedCredential, "Sign-in failed. Choose an account below.")
		return
	}

	if cookie, err := r.Cookie(sdkCSRFField); err == nil && cookie.Value != "" {
		body := r.PostFormValue(sdkCSRFField)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(body)) != 1 {
			if h.logger != nil {
				h.logger.ForRequest(r.Context()).Warn().Msg("identity callback failed double-submit check")
			}
			http.Error(w, "Forbidden: invalid CSRF token", http.StatusForbidden)
			return
		}
	}

	outcome := h.bridge.Complete(r.PostFormValue("credential"))
	if !outcome.OK() {
		h.renderFallback(w, r, http.StatusOK, identity.ReasonMalformedCredential, "Sign-in failed. Choose an account below.")
		return
	}

	h.signIn(w, r, outcome.User, "identity_sdk")
}

// HandleLogout handles POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if sc := session.FromContext(r.Context()); sc != nil {
		if err := sc.Logout(r.Context()); err != nil && h.logger != nil {
			h.logger.ForRequest(r.Context()).Warn().Err(err).Msg("failed to clear stored session on logout")
		}
	}

	redirectTo(w, r, loginPath)
}

// signIn records user in the browser's session and moves on to the dashboard.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, user models.User, method string) {
	sc := session.FromContext(r.Context())
	if sc == nil {
		if h.logger != nil {
			h.logger.ForRequest(r.Context()).Error().Msg("no session context on sign-in request")
		}
		h.renderFallback(w, r, http.StatusInternalServerError, identity.ReasonNone, "Your session could not be started. Please try again.")
		return
	}

	if err := sc.SetUser(r.Context(), user); err != nil {
		// The in-memory session is signed in; only the stored copy is missing.
		if h.logger != nil {
			h.logger.ForRequest(r.Context()).Warn().Err(err).Str("email", user.Email).Msg("failed to persist signed-in user")
		}
	}

	if h.logger != nil {
		h.logger.ForRequest(r.Context()).Info().Str("email", user.Email).Str("method", method).Msg("user signed in")
	}
	redirectTo(w, r, dashboardPath)
}

func (h *AuthHandler) renderFallback(w http.ResponseWriter, r *http.Request, status int, reason identity.Reason, message string) {
	presentation := identity.Presentation{ShowFallback: true, Reason: reason}
	h.renderLogin(w, r, status, presentation, false, message)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, p identity.Presentation, dismissed bool, message string) {
	accounts := h.picker.Accounts()
	options := make([]AccountOption, len(accounts))
	for i, email := range accounts {
		options[i] = AccountOption{Email: email, Initial: (&models.User{Email: email}).Initial()}
	}

	data := map[string]interface{}{
		"Page":         "login",
		"DevMode":      h.devMode,
		"CSRFToken":    common.CSRFTokenFromContext(r.Context()),
		"Button":       p.Button,
		"ScriptURL":    p.ScriptURL,
		"ShowPicker":   p.ShowFallback && !dismissed,
		"Dismissed":    p.ShowFallback && dismissed,
		"Reason":       p.Reason.String(),
		"Accounts":     options,
		"ErrorMessage": message,
	}

	NoStore(w)
	renderStatus(w, h.logger, h.templates, "login.html", status, data)
}
