package handlers

import (
	"net/http"

	"github.com/bobmcallan/signin-portal/internal/common"
)

// SessionStats reports on the session contexts held in memory.
type SessionStats interface {
	Active() int
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger   *common.Logger
	sessions SessionStats
}

// NewHealthHandler creates a new health handler. sessions may be nil.
func NewHealthHandler(logger *common.Logger, sessions SessionStats) *HealthHandler {
	return &HealthHandler{logger: logger, sessions: sessions}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := HealthStatus{Status: "ok"}
	if h.sessions != nil {
		status.Sessions = h.sessions.Active()
	}
	WriteJSON(w, http.StatusOK, status)
}
