package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common/validate"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

type ContactHandler struct {
	contact  *service.ContactService
	sessions *session.Manager
	views    *view.Renderer
}

func NewContactHandler(contact *service.ContactService, sessions *session.Manager, views *view.Renderer) *ContactHandler {
	return &ContactHandler{contact: contact, sessions: sessions, views: views}
}

func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Get("/contact", h.contactForm)
	r.Post("/contact", h.sendContact)
	r.Get("/share/send_email", h.shareForm)
	r.Post("/share/send_email", h.share)
}

func (h *ContactHandler) contactForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, "contact.html", view.Data{
		"user":  session.CurrentUser(r.Context()),
		"state": h.sessions.IssueState(w),
	})
}

func (h *ContactHandler) sendContact(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	email := strings.ToLower(r.FormValue("email"))
	subject := r.FormValue("subject")
	content := r.FormValue("content")

	data := view.Data{
		"user":         user,
		"email_form":   email,
		"subject_form": subject,
		"content_form": content,
	}
	haveError := false
	if !validate.Email(email) {
		data["error_email"] = true
		haveError = true
	}
	if !validate.Subject(subject) {
		data["error_subject"] = true
		haveError = true
	}
	if !validate.Content(content) {
		data["error_content"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "contact.html", data)
		return
	}

	if err := h.contact.SendNote(r.Context(), email, subject, content); err != nil {
		slog.Error("contact note failed", "error", err)
		h.views.Error(w)
		return
	}

	h.views.Render(w, "contact.html", view.Data{
		"user":            user,
		"success_message": true,
		"state":           h.sessions.IssueState(w),
	})
}

func (h *ContactHandler) shareForm(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}
	h.views.Render(w, "send_email.html", view.Data{
		"user":            user,
		"email_from_form": user.Email,
		"state":           h.sessions.IssueState(w),
	})
}

func (h *ContactHandler) share(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	emailTo := strings.ToLower(r.FormValue("email_to"))
	emailFrom := strings.ToLower(r.FormValue("email_from"))
	content := r.FormValue("content")

	data := view.Data{
		"user":            user,
		"email_to_form":   emailTo,
		"email_from_form": emailFrom,
		"content_form":    content,
	}
	haveError := false
	if !validate.Email(emailTo) {
		data["error_email_to"] = true
		haveError = true
	}
	if !validate.Email(emailFrom) {
		data["error_email_from"] = true
		haveError = true
	}
	if !validate.Content(content) {
		data["error_content"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "send_email.html", data)
		return
	}

	if err := h.contact.Recommend(r.Context(), emailTo, emailFrom, content); err != nil {
		slog.Error("recommendation email failed", "user", user.ID, "error", err)
		h.views.Error(w)
		return
	}

	h.views.Render(w, "send_email.html", view.Data{
		"user":            user,
		"success_message": true,
		"sent_email":      emailTo,
		"state":           h.sessions.IssueState(w),
	})
}
