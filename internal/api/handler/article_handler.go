package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common"
	"github.com/tarnblog/tarn/internal/common/validate"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

type ArticleHandler struct {
	articles *service.ArticleService
	sessions *session.Manager
	views    *view.Renderer
}

func NewArticleHandler(articles *service.ArticleService, sessions *session.Manager, views *view.Renderer) *ArticleHandler {
	return &ArticleHandler{articles: articles, sessions: sessions, views: views}
}

func (h *ArticleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/new_article", h.newArticleForm)
	r.Post("/new_article", h.newArticle)
	r.Get("/edit_article/", h.editArticleForm)
	r.Post("/edit_article/", h.editArticle)
}

func (h *ArticleHandler) newArticleForm(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}
	h.views.Render(w, "new_article.html", view.Data{
		"user":  user,
		"state": h.sessions.IssueState(w),
	})
}

func (h *ArticleHandler) newArticle(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")

	data := view.Data{
		"user":       user,
		"title_form": title,
		"body_form":  body,
	}
	haveError := false
	if !validate.Title(title) {
		data["error_title"] = true
		haveError = true
	}
	if !validate.Body(body) {
		data["error_body"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "new_article.html", data)
		return
	}

	if _, err := h.articles.Create(r.Context(), user, title, body); err != nil {
		slog.Error("creating article failed", "author", user.ID, "error", err)
		h.views.Error(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *ArticleHandler) editArticleForm(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("article"), 10, 64)
	if err != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgNoSuchArticle)
		return
	}
	article, err := h.articles.ByIDForAuthor(r.Context(), id, user)
	if err != nil {
		h.renderArticleError(w, user, err)
		return
	}

	h.views.Render(w, "edit_article.html", view.Data{
		"user":       user,
		"article":    article,
		"title_form": article.Title,
		"body_form":  article.Body,
		"state":      h.sessions.IssueState(w),
	})
}

func (h *ArticleHandler) editArticle(w http.ResponseWriter, r *http.Request) {
	user := session.CurrentUser(r.Context())
	if user == nil {
		renderMessage(h.views, w, nil, msgPleaseLogIn)
		return
	}
	if !h.sessions.CheckState(w, r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if deleteID := r.FormValue("delete_article"); deleteID != "" {
		id, err := strconv.ParseInt(deleteID, 10, 64)
		if err != nil {
			renderMessage(h.views, w, view.Data{"user": user}, msgNoSuchArticle)
			return
		}
		if err := h.articles.Delete(r.Context(), id, user); err != nil {
			h.renderArticleError(w, user, err)
			return
		}
		renderMessage(h.views, w, view.Data{"user": user}, msgArticleGone)
		return
	}

	id, err := strconv.ParseInt(r.FormValue("edit_article"), 10, 64)
	if err != nil {
		renderMessage(h.views, w, view.Data{"user": user}, msgNoSuchArticle)
		return
	}
	article, err := h.articles.ByIDForAuthor(r.Context(), id, user)
	if err != nil {
		h.renderArticleError(w, user, err)
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")

	data := view.Data{
		"user":       user,
		"article":    article,
		"title_form": title,
		"body_form":  body,
	}
	haveError := false
	if !validate.Title(title) {
		data["error_title"] = true
		haveError = true
	}
	if !validate.Body(body) {
		data["error_body"] = true
		haveError = true
	}
	if haveError {
		data["state"] = h.sessions.IssueState(w)
		h.views.Render(w, "edit_article.html", data)
		return
	}

	if _, err := h.articles.Edit(r.Context(), id, user, title, body); err != nil {
		h.renderArticleError(w, user, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *ArticleHandler) renderArticleError(w http.ResponseWriter, user any, err error) {
	switch {
	case errors.Is(err, common.ErrForbidden):
		renderMessage(h.views, w, view.Data{"user": user}, msgNotAuthorized)
	case errors.Is(err, common.ErrNotFound):
		renderMessage(h.views, w, view.Data{"user": user}, msgNoSuchArticle)
	default:
		slog.Error("article operation failed", "error", err)
		h.views.Error(w)
	}
}
