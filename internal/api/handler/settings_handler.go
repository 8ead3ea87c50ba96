package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common/validate"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

type SettingsHandler struct {
	accounts *service.AccountService
	sessions *session.Manager
	views    *view.Renderer
}

func NewSettingsHandler(accounts *service.AccountService, sessions *session.Manager, views *view.Renderer) *SettingsHandler {
	return &SettingsHandler{accounts: accounts, sessions: sessions, views: views}
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/user_settings", h.overview)
	r.Get("/user_settings/change_password", h.form("change_password.html"))
	r.Post("/user_settings/change_password", h.changePassword)
	r.Get("/user_settings/change_email", h.form("change_email.html"))
	r.Post("/user_settings/change_email", h.changeEmail)
	r.Get("/user_settings/change_username", h.form("change_username.html"))
	r.Post("/user_settings/change_username", h.changeUsername)
	r.Get("/user_settings/delete_account", h.form("delete_account.html"))
	r.Post("/user_settings/delete_account", h.deleteAccount)
}

// requireUser gates every settings page behind a login.
func (h *SettingsHandler) requireUser(w http.ResponseWriter, r *http.Request) *model.User {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
	}
	return user
}

func (h *SettingsHandler) overview(w http.ResponseWriter, r *http.Request) {
	user := h.requireUser(w, r)
	if user == nil {
		return
	}
	h.views.Render(w, "user_settings.html", view.Data{"user": user})
}

func (h *SettingsHandler) form(template string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.requireUser(w, r)
		if user == nil {
			return
		}
		h.views.Render(w, template, view.Data{
			"user":  user,
			"state": h.sessions.IssueState(w),
		})
	}
}

func (h *SettingsHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user := h.requireUser(w, r)
	if user == nil {
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	current := r.FormValue("current_password")
	password := r.FormValue("password")
	verifyPassword := r.FormValue("verify_password")

	data := view.Data{"user": user}
	haveError := false
	if !validate.Password(password) {
		data["error_password"] = true
		haveError = true
	}
	if password != verifyPassword {
		data["error_verify_password"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "change_password.html", data)
		return
	}

	updated, err := h.accounts.ChangePassword(r.Context(), user, current, password)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			data["error_current_password"] = true
			data["state"] = h.sessions.IssueState(w)
			h.views.Render(w, "change_password.html", data)
			return
		}
		slog.Error("password change failed", "user", user.ID, "error", err)
		h.views.Error(w)
		return
	}

	h.views.Render(w, "change_password.html", view.Data{
		"user":            updated,
		"success_message": true,
		"state":           h.sessions.IssueState(w),
	})
}

func (h *SettingsHandler) changeEmail(w http.ResponseWriter, r *http.Request) {
	user := h.requireUser(w, r)
	if user == nil {
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	current := r.FormValue("current_password")
	email := strings.ToLower(r.FormValue("email"))
	verifyEmail := strings.ToLower(r.FormValue("verify_email"))

	data := view.Data{
		"user":              user,
		"email_form":        email,
		"verify_email_form": verifyEmail,
	}
	haveError := false
	if !validate.Email(email) {
		data["error_email"] = true
		haveError = true
	}
	if email != verifyEmail {
		data["error_verify_email"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "change_email.html", data)
		return
	}

	updated, err := h.accounts.ChangeEmail(r.Context(), user, current, email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			data["error_current_password"] = true
		case errors.Is(err, service.ErrEmailTaken):
			data["error_user_exists"] = true
		default:
			slog.Error("email change failed", "user", user.ID, "error", err)
			h.views.Error(w)
			return
		}
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "change_email.html", data)
		return
	}

	h.views.Render(w, "change_email.html", view.Data{
		"user":            updated,
		"success_message": true,
		"state":           h.sessions.IssueState(w),
	})
}

func (h *SettingsHandler) changeUsername(w http.ResponseWriter, r *http.Request) {
	user := h.requireUser(w, r)
	if user == nil {
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")

	data := view.Data{"user": user, "username_form": username}
	if !validate.Username(username) {
		data["error_username"] = true
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "change_username.html", data)
		return
	}

	updated, err := h.accounts.ChangeUsername(r.Context(), user, username)
	if err != nil {
		if errors.Is(err, service.ErrNameTaken) {
			data["error_username_exists"] = true
			data["state"] = h.sessions.IssueState(w)
			h.views.Render(w, "change_username.html", data)
			return
		}
		slog.Error("username change failed", "user", user.ID, "error", err)
		h.views.Error(w)
		return
	}

	h.views.Render(w, "change_username.html", view.Data{
		"user":            updated,
		"success_message": true,
		"state":           h.sessions.IssueState(w),
	})
}

func (h *SettingsHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	user := h.requireUser(w, r)
	if user == nil {
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	if err := h.accounts.DeleteAccount(r.Context(), user, password); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			h.views.Render(w, "delete_account.html", view.Data{
				"user":           user,
				"error_password": true,
				"state":          h.sessions.IssueState(w),
			})
			return
		}
		slog.Error("account deletion failed", "user", user.ID, "error", err)
		h.views.Error(w)
		return
	}

	h.sessions.Logout(w)
	renderMessage(h.views, w, nil,
		"Your account and all of your articles have been deleted. Goodbye, "+user.Name+".")
}
