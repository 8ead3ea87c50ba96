package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/validate"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	views    *view.Renderer
}

func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, views *view.Renderer) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, views: views}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/signup", h.signupForm)
	r.Post("/signup", h.signup)
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
}

func (h *AuthHandler) signupForm(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	h.views.Render(w, "signup.html", view.Data{"state": h.sessions.IssueState(w)})
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	verifyPassword := r.FormValue("verify_password")
	email := strings.ToLower(r.FormValue("email"))
	verifyEmail := strings.ToLower(r.FormValue("verify_email"))

	data := view.Data{
		"username_form":     username,
		"email_form":        email,
		"verify_email_form": verifyEmail,
	}
	haveError := false
	if !validate.Username(username) {
		data["error_username"] = true
		haveError = true
	}
	if !validate.Password(password) {
		data["error_password"] = true
		haveError = true
	}
	if password != verifyPassword {
		data["error_verify_password"] = true
		haveError = true
	}
	if !validate.Email(email) {
		data["error_email"] = true
		haveError = true
	}
	if email != verifyEmail {
		data["error_verify_email"] = true
		haveError = true
	}

	if !haveError {
		nameTaken, emailTaken, err := h.auth.CheckAvailability(r.Context(), username, email)
		if err != nil {
			slog.Error("signup availability check failed", "error", err)
			h.views.Error(w)
			return
		}
		if nameTaken {
			data["error_username_exists"] = true
			haveError = true
		}
		if emailTaken {
			data["error_user_exists"] = true
			haveError = true
		}
	}

	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "signup.html", data)
		return
	}

	user, err := h.auth.Signup(r.Context(), username, password, email)
	if err != nil {
		// A concurrent signup can slip past the advisory check; the
		// schema constraint reports it here.
		switch {
		case errors.Is(err, service.ErrNameTaken):
			data["error_username_exists"] = true
		case errors.Is(err, service.ErrEmailTaken):
			data["error_user_exists"] = true
		default:
			slog.Error("signup failed", "error", err)
			h.views.Error(w)
			return
		}
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "signup.html", data)
		return
	}

	h.sessions.Login(w, user)
	renderMessage(h.views, w, view.Data{"user": user},
		"Welcome, "+user.Name+"! Your account has been created.")
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	h.views.Render(w, "login.html", view.Data{"state": h.sessions.IssueState(w)})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	email := strings.ToLower(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			h.views.Render(w, "login.html", view.Data{
				"error":      true,
				"email_form": email,
				"state":      h.sessions.IssueState(w),
			})
			return
		}
		slog.Error("login failed", "error", err)
		h.views.Error(w)
		return
	}

	h.sessions.Login(w, user)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.sessions.Logout(w)
	renderMessage(h.views, w, nil, "Goodbye, "+user.Name+". You have been logged out.")
}
