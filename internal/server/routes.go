package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app

	// UI page routes (HTML templates)
	mux.HandleFunc("/", a.PageHandler.HandleRoot)
	mux.HandleFunc("/login", a.AuthHandler.ServeLogin)
	mux.HandleFunc("/login/select", a.AuthHandler.HandleSelect)
	mux.HandleFunc(s.callbackPath, a.AuthHandler.HandleCredential)
	mux.HandleFunc("/logout", a.AuthHandler.HandleLogout)
	mux.Handle("/dashboard", a.Guard.Protect(a.DashboardHandler))

	// Static files (CSS, JS, images)
	mux.HandleFunc("/static/", a.PageHandler.StaticFileHandler)

	// API routes
	mux.HandleFunc("/api/health", a.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", a.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceItem(w, r, a.SessionHandler.HandleGet, nil, a.SessionHandler.HandleDelete)
	})
	mux.HandleFunc("/api/session/events", a.SessionHandler.HandleEvents)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
