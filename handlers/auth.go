package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"time"

	"survivor-pool-go/middleware"
	"survivor-pool-go/models"
	"survivor-pool-go/services"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	templates   *template.Template
	authService *services.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(templates *template.Template, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		templates:   templates,
		authService: authService,
	}
}

// LoginPage displays the login form
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := struct {
		Title   string
		Error   string
		Success string
	}{
		Title:   "Login - PL Survivor Pool",
		Error:   r.URL.Query().Get("error"),
		Success: r.URL.Query().Get("success"),
	}

	renderTemplate(w, h.templates, "login.html", data)
}

// Login handles the login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		redirectWithError(w, r, "/login", "Please provide both email and password.")
		return
	}

	authResponse, err := h.authService.Login(email, password)
	if err != nil {
		logger.Warnf("Login failed for %s: %v", email, err)
		redirectServiceError(w, r, "/login", err, "Invalid email or password.")
		return
	}

	h.setAuthCookie(w, authResponse.Token)
	logger.Infof("User %s (%s) logged in", authResponse.User.Name, authResponse.User.Email)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// RegisterPage displays the registration form
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := struct {
		Title string
		Error string
	}{
		Title: "Create Account - PL Survivor Pool",
		Error: r.URL.Query().Get("error"),
	}

	renderTemplate(w, h.templates, "register.html", data)
}

// Register handles the registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req := models.RegisterRequest{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	authResponse, err := h.authService.Register(req)
	if err != nil {
		redirectServiceError(w, r, "/register", err, "We could not create your account. Please try again.")
		return
	}

	h.setAuthCookie(w, authResponse.Token)
	logger.Infof("User %s (%s) registered", authResponse.User.Name, authResponse.User.Email)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Me returns the current user's information as JSON
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user.ToSafeUser())
}

// setAuthCookie sets the authentication cookie
func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

// secureCookies is false when TLS terminates at a proxy in front of us
func (h *AuthHandler) secureCookies() bool {
	return os.Getenv("BEHIND_PROXY") != "true"
}
