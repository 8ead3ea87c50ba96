package handler

import (
	"log/slog"
	"net/http"

	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/domain/model"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

type HomeHandler struct {
	articles *service.ArticleService
	users    repository.UserRepository
	views    *view.Renderer
	limit    int
}

func NewHomeHandler(articles *service.ArticleService, users repository.UserRepository, views *view.Renderer, limit int) *HomeHandler {
	return &HomeHandler{articles: articles, users: users, views: views, limit: limit}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
}

type articleView struct {
	model.Article
	AuthorName string
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.Recent(r.Context(), h.limit)
	if err != nil {
		slog.Error("loading recent articles failed", "error", err)
		h.views.Error(w)
		return
	}

	list := make([]articleView, 0, len(articles))
	for _, a := range articles {
		// Author names resolve through the cached user lookup; a
		// deleted author shows as "Unknown" for the moment before the
		// cascade removes the article.
		name := "Unknown"
		if author, err := h.users.ByID(r.Context(), a.Author); err == nil {
			name = author.Name
		}
		list = append(list, articleView{Article: a, AuthorName: name})
	}

	h.views.Render(w, "homepage.html", view.Data{
		"user":         session.CurrentUser(r.Context()),
		"article_list": list,
	})
}
