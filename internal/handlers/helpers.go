package handlers

import (
	"encoding/json"
	"net/http"
)

// Page paths the handlers redirect between.
const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

// RequireMethod validates that the HTTP request uses the specified method.
// HEAD is accepted wherever GET is. Returns false after writing a 405.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// NoStore marks a response as depending on the browser's session, so neither
// the browser nor a proxy may replay it.
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

// redirectTo sends a session-dependent 302 to path.
func redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	NoStore(w)
	http.Redirect(w, r, path, http.StatusFound)
}

// WriteJSON writes a JSON response with the specified status code and data.
// API responses describe session state and are never cached.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	NoStore(w)
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}
