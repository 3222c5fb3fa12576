package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type loginPageData struct {
	SalonName string
	Email     string
	Error     string
}

// handleLogin serves the login form on GET and signs the user in on
// POST. The remember checkbox selects the durable session tier.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderLogin(w, r, loginPageData{SalonName: s.salonName}, http.StatusOK)
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		s.renderLogin(w, r, loginPageData{SalonName: s.salonName, Error: "Geçersiz istek"}, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	remember := r.Form.Get("remember") == "on"

	if email == "" || password == "" {
		s.renderLogin(w, r, loginPageData{SalonName: s.salonName, Email: email, Error: "E-posta ve şifre gerekli"}, http.StatusUnprocessableEntity)
		return
	}

	sess, err := s.backend.SignInWithPassword(r.Context(), email, password)
	if err != nil || sess == nil {
		if err != nil {
			slog.WarnContext(r.Context(), "Sign-in failed", "email", email, "error", err)
		}
		s.renderLogin(w, r, loginPageData{SalonName: s.salonName, Email: email, Error: "E-posta veya şifre hatalı"}, http.StatusUnauthorized)
		return
	}

	s.guard.RecordLogin(remember)
	slog.InfoContext(r.Context(), "User signed in", "email", email, "remember", remember)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears local session state and invalidates the backend
// session, then returns to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.guard.Clear()
	if err := s.backend.SignOut(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "Backend sign-out failed", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Login template execution failed", "error", err)
	}
}
