package session

import (
	"context"

	"github.com/bobmcallan/signin-portal/internal/models"
)

type contextKey int

const (
	sessionKey contextKey = iota
	userKey
)

// WithContext attaches the browser's session context to a request context.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, sessionKey, sc)
}

// FromContext returns the session context, or nil if absent.
func FromContext(ctx context.Context) *Context {
	sc, _ := ctx.Value(sessionKey).(*Context)
	return sc
}

// WithUser stores the user admitted by the route guard.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the admitted user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
