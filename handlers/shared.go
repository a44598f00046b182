package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"survivor-pool-go/logging"
	"survivor-pool-go/services"
)

var logger = logging.WithPrefix("Handlers")

// renderTemplate executes a template and reports a 500 on failure
func renderTemplate(w http.ResponseWriter, templates *template.Template, name string, data interface{}) {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Errorf("Template %s error: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// withParam appends a query parameter to a path that may already
// carry a query string
func withParam(path, key, value string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + key + "=" + url.QueryEscape(value)
}

// redirectWithError sends the user back to a page with an error banner
func redirectWithError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, withParam(path, "error", message), http.StatusSeeOther)
}

// redirectWithSuccess sends the user to a page with a success banner
func redirectWithSuccess(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, withParam(path, "success", message), http.StatusSeeOther)
}

// redirectServiceError maps a service error to a banner message.
// User-facing errors surface verbatim; anything else is logged and
// replaced with the supplied fallback.
func redirectServiceError(w http.ResponseWriter, r *http.Request, path string, err error, fallback string) {
	if message, ok := services.UserMessage(err); ok {
		redirectWithError(w, r, path, message)
		return
	}
	logger.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
	redirectWithError(w, r, path, fallback)
}
