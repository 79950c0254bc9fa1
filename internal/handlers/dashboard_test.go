package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/models"
	"github.com/bobmcallan/signin-portal/internal/session"
)

func TestDashboardHandler_RendersUser(t *testing.T) {
	h := NewDashboardHandler(common.NewSilentLogger(), false)

	user := &models.User{Email: "ada@example.com", Name: "ada lovelace"}
	req := httptest.NewRequest("GET", "/dashboard", nil)
	ctx := session.WithUser(req.Context(), user)
	ctx = common.WithCSRFToken(ctx, "tok123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`<div class="user-avatar" title="ada lovelace">A</div>`,
		"ada@example.com",
		"1,234",
		"Upcoming Events",
		"You logged in",
		`action="/logout"`,
		`value="tok123"`,
		"/static/js/session.js",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected dashboard to contain %q", want)
		}
	}
}

func TestDashboardHandler_InitialFromEmail(t *testing.T) {
	h := NewDashboardHandler(common.NewSilentLogger(), false)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	ctx := session.WithUser(req.Context(), &models.User{Email: "zed@example.com"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))

	if !strings.Contains(w.Body.String(), `title="zed@example.com">Z</div>`) {
		t.Errorf("expected initial Z from the email, got %s", w.Body.String())
	}
}

func TestDashboardHandler_NoUserRedirects(t *testing.T) {
	h := NewDashboardHandler(common.NewSilentLogger(), false)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %s", loc)
	}
}
