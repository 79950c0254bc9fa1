// Package guard gates protected pages on the browser's session state.
package guard

import (
	"net/http"
	"time"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/session"
)

// State is the guard's view of a session.
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Evaluate classifies a session context. A missing context is still loading.
func Evaluate(sc *session.Context) State {
	if sc == nil || !sc.IsReady() {
		return Loading
	}
	if sc.Current() == nil {
		return Unauthenticated
	}
	return Authenticated
}

// Guard protects handlers behind an authenticated session.
type Guard struct {
	logger    *common.Logger
	loginPath string
	readyWait time.Duration
	loading   http.Handler
}

// New creates a Guard. Unauthenticated requests are redirected to loginPath;
// requests whose session is not ready within readyWait are served by loading.
func New(logger *common.Logger, loginPath string, readyWait time.Duration, loading http.Handler) *Guard {
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}
	return &Guard{
		logger:    logger,
		loginPath: loginPath,
		readyWait: readyWait,
		loading:   loading,
	}
}

// Protect wraps next so it only runs for an authenticated session.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := session.FromContext(r.Context())
		if sc != nil && !sc.IsReady() {
			sc.WaitReady(r.Context(), g.readyWait)
		}

		state := Evaluate(sc)
		w.Header().Set("Cache-Control", "no-store")

		switch state {
		case Loading:
			g.logger.ForRequest(r.Context()).Debug().Str("path", r.URL.Path).Msg("session not ready, serving loading page")
			w.Header().Set("Retry-After", "1")
			g.loading.ServeHTTP(w, r)

		case Unauthenticated:
			g.logger.ForRequest(r.Context()).Debug().Str("path", r.URL.Path).Msg("no signed-in user, redirecting to login")
			http.Redirect(w, r, g.loginPath, http.StatusFound)

		case Authenticated:
			user := sc.Current()
			if user == nil {
				// Logged out since Evaluate
				http.Redirect(w, r, g.loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
		}
	})
}

func defaultLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="1"></head><body>Loading...</body></html>`))
}
