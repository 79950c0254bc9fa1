package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/models"
	"github.com/bobmcallan/signin-portal/internal/session"
)

const sseHeartbeat = 25 * time.Second

// SessionState is the JSON view of a browser session.
type SessionState struct {
	Event         string       `json:"event,omitempty"`
	Ready         bool         `json:"ready"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

// SessionHandler exposes the browser's session as JSON and as an event stream.
type SessionHandler struct {
	logger    *common.Logger
	readyWait time.Duration
}

// NewSessionHandler creates a new session handler. Reads wait up to
// readyWait for a hydrating session.
func NewSessionHandler(logger *common.Logger, readyWait time.Duration) *SessionHandler {
	return &SessionHandler{logger: logger, readyWait: readyWait}
}

// HandleGet handles GET /api/session.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	if sc == nil {
		WriteError(w, http.StatusInternalServerError, "no session")
		return
	}

	sc.WaitReady(r.Context(), h.readyWait)

	WriteJSON(w, http.StatusOK, stateOf(sc.IsReady(), sc.Current(), ""))
}

// HandleDelete handles DELETE /api/session (logout).
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	if sc == nil {
		WriteError(w, http.StatusInternalServerError, "no session")
		return
	}

	if err := sc.Logout(r.Context()); err != nil && h.logger != nil {
		h.logger.ForRequest(r.Context()).Warn().Err(err).Msg("failed to clear stored session on logout")
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleEvents handles GET /api/session/events as a server-sent event
// stream. Every session change is sent as a "session" event; open pages use
// it to leave the dashboard as soon as the user logs out.
func (h *SessionHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sc := session.FromContext(r.Context())
	if sc == nil {
		WriteError(w, http.StatusInternalServerError, "no session")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	rc.SetWriteDeadline(time.Time{})

	events, cancel := sc.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	NoStore(w)
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if sc.IsReady() {
		if err := writeEvent(w, stateOf(true, sc.Current(), session.EventReady.String())); err != nil {
			return
		}
	}
	if err := rc.Flush(); err != nil {
		if h.logger != nil {
			h.logger.Error().Err(err).Msg("session event stream not supported")
		}
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, stateOf(true, evt.User, evt.Kind.String())); err != nil {
				return
			}
			rc.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			rc.Flush()
		}
	}
}

func stateOf(ready bool, user *models.User, event string) SessionState {
	return SessionState{
		Event:         event,
		Ready:         ready,
		Authenticated: user != nil,
		User:          user,
	}
}

func writeEvent(w http.ResponseWriter, state SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
	return err
}
