package handler

import (
	"net/http"

	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
)

// StaticHandler serves the fixed informational pages.
type StaticHandler struct {
	views *view.Renderer
}

func NewStaticHandler(views *view.Renderer) *StaticHandler {
	return &StaticHandler{views: views}
}

func (h *StaticHandler) RegisterRoutes(r chi.Router) {
	r.Get("/about", h.page("about.html"))
	r.Get("/terms", h.page("terms.html"))
	r.Get("/privacy", h.page("privacy.html"))
}

func (h *StaticHandler) page(template string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.views.Render(w, template, view.Data{"user": session.CurrentUser(r.Context())})
	}
}
