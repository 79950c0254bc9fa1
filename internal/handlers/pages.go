package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bobmcallan/signin-portal/internal/common"
)

// PageHandler serves the static pages and assets that need no session.
type PageHandler struct {
	logger    *common.Logger
	templates *template.Template
	devMode   bool
}

// NewPageHandler creates a new page handler that loads templates from the pages directory.
func NewPageHandler(logger *common.Logger, devMode bool) *PageHandler {
	return &PageHandler{
		logger:    logger,
		templates: loadTemplates(),
		devMode:   devMode,
	}
}

// loadTemplates parses every page and partial template.
func loadTemplates() *template.Template {
	pagesDir := FindPagesDir()

	templates := template.Must(template.ParseGlob(filepath.Join(pagesDir, "*.html")))
	template.Must(templates.ParseGlob(filepath.Join(pagesDir, "partials", "*.html")))
	return templates
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
		"../../../pages",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// HandleRoot sends the site root to the login page.
func (h *PageHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

// ServeLoading renders the placeholder shown while a session is hydrating.
// The page refreshes itself until the session is ready.
func (h *PageHandler) ServeLoading(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Page":    "loading",
		"DevMode": h.devMode,
		"Path":    r.URL.RequestURI(),
	}
	render(w, h.logger, h.templates, "loading.html", data)
}

// StaticFileHandler serves static files (CSS, JS, images).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(FindPagesDir(), "static")

	path := r.URL.Path[len("/static/"):]
	fullPath := filepath.Join(staticDir, path)

	// Security: prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if len(absFullPath) < len(absStaticDir) || absFullPath[:len(absStaticDir)] != absStaticDir {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}

// render executes a template, logging and answering 500 on failure.
func render(w http.ResponseWriter, logger *common.Logger, templates *template.Template, name string, data map[string]interface{}) {
	renderStatus(w, logger, templates, name, http.StatusOK, data)
}

func renderStatus(w http.ResponseWriter, logger *common.Logger, templates *template.Template, name string, status int, data map[string]interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		if logger != nil {
			logger.Error().Str("template", name).Err(err).Msg("failed to render page")
		}
	}
}
