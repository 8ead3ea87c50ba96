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

type ResetHandler struct {
	resets   *service.ResetService
	sessions *session.Manager
	views    *view.Renderer
}

func NewResetHandler(resets *service.ResetService, sessions *session.Manager, views *view.Renderer) *ResetHandler {
	return &ResetHandler{resets: resets, sessions: sessions, views: views}
}

func (h *ResetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login/forgot_password", h.forgotForm)
	r.Post("/login/forgot_password", h.forgot)
	r.Get("/reset_pw/", h.resetForm)
	r.Post("/reset_pw/", h.reset)
}

func (h *ResetHandler) forgotForm(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	h.views.Render(w, "forgot_password.html", view.Data{"state": h.sessions.IssueState(w)})
}

func (h *ResetHandler) forgot(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	email := strings.ToLower(r.FormValue("email"))
	if !validate.Email(email) {
		h.views.Render(w, "forgot_password.html", view.Data{
			"error_email": true,
			"email_form":  email,
			"state":       h.sessions.IssueState(w),
		})
		return
	}

	if err := h.resets.Request(r.Context(), email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			h.views.Render(w, "forgot_password.html", view.Data{
				"error":      true,
				"email_form": email,
				"state":      h.sessions.IssueState(w),
			})
			return
		}
		slog.Error("password reset request failed", "error", err)
		h.views.Error(w)
		return
	}

	renderMessage(h.views, w, nil,
		"We emailed a password reset link to "+email+". The link is valid for one hour.")
}

// resetForm validates the emailed token and, when it checks out, logs
// the visitor in before showing the new-password form. The token rides
// along in a hidden field so the POST can verify it again.
func (h *ResetHandler) resetForm(w http.ResponseWriter, r *http.Request) {
	if user := session.CurrentUser(r.Context()); user != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgPleaseLogOut)
		return
	}

	token := r.URL.Query().Get("token")
	user, _, err := h.resets.Validate(r.Context(), token)
	if err != nil {
		h.renderResetError(w, err)
		return
	}

	h.sessions.Login(w, user)
	h.views.Render(w, "reset_password.html", view.Data{
		"user":  user,
		"token": token,
		"state": h.sessions.IssueState(w),
	})
}

func (h *ResetHandler) reset(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgResetUseLink)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	token := r.FormValue("token")
	tokenUser, req, err := h.resets.Validate(r.Context(), token)
	if err != nil {
		h.renderResetError(w, err)
		return
	}
	if tokenUser.ID != user.ID {
		renderMessage(h.views, w, view.Data{"user": user}, msgResetInvalid)
		return
	}

	password := r.FormValue("password")
	verifyPassword := r.FormValue("verify_password")

	data := view.Data{"user": user, "token": token}
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
		h.views.Render(w, "reset_password.html", data)
		return
	}

	if err := h.resets.Complete(r.Context(), user, req, password); err != nil {
		slog.Error("completing password reset failed", "user", user.ID, "error", err)
		h.views.Error(w)
		return
	}
	renderMessage(h.views, w, view.Data{"user": user}, msgResetDone)
}

func (h *ResetHandler) renderResetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrExpiredLink):
		renderMessage(h.views, w, nil, msgResetExpired)
	case errors.Is(err, service.ErrInvalidLink):
		renderMessage(h.views, w, nil, msgResetInvalid)
	default:
		slog.Error("reset token validation failed", "error", err)
		h.views.Error(w)
	}
}
