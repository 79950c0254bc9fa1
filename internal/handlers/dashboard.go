package handlers

import (
	"html/template"
	"net/http"

	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/config"
	"github.com/bobmcallan/signin-portal/internal/session"
)

// DashboardStat is one summary card on the dashboard.
type DashboardStat struct {
	Label string
	Value string
}

// Static dashboard content. There is no backend behind these numbers.
var (
	dashboardStats = []DashboardStat{
		{Label: "Total Users", Value: "1,234"},
		{Label: "Active Projects", Value: "12"},
		{Label: "Tasks Completed", Value: "89"},
		{Label: "Upcoming Events", Value: "5"},
	}
	dashboardActivity = []string{
		"You logged in",
		"Profile updated successfully",
		"New project created: Dashboard UI",
	}
)

// DashboardHandler serves the protected dashboard page.
type DashboardHandler struct {
	logger    *common.Logger
	templates *template.Template
	devMode   bool
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(logger *common.Logger, devMode bool) *DashboardHandler {
	return &DashboardHandler{
		logger:    logger,
		templates: loadTemplates(),
		devMode:   devMode,
	}
}

// ServeHTTP renders the dashboard for the user admitted by the route guard.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	user := session.UserFromContext(r.Context())
	if user == nil {
		redirectTo(w, r, loginPath)
		return
	}

	data := map[string]interface{}{
		"Page":          "dashboard",
		"DevMode":       h.devMode,
		"CSRFToken":     common.CSRFTokenFromContext(r.Context()),
		"User":          user,
		"Initial":       user.Initial(),
		"DisplayName":   user.DisplayName(),
		"Stats":         dashboardStats,
		"Activity":      dashboardActivity,
		"PortalVersion": config.GetVersion(),
	}

	NoStore(w)
	render(w, h.logger, h.templates, "dashboard.html", data)
}
