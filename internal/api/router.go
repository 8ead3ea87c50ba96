package api

import (
	"net/http"
	"time"

	"github.com/tarnblog/tarn/internal/api/handler"
	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/static"
	"github.com/tarnblog/tarn/internal/web/view"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Users    repository.UserRepository
	Auth     *service.AuthService
	Articles *service.ArticleService
	Accounts *service.AccountService
	Resets   *service.ResetService
	Contact  *service.ContactService
	Sessions *session.Manager
	Views    *view.Renderer

	HomeArticleLimit int
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Identity resolves once per request, before any handler runs.
	r.Use(deps.Sessions.WithUser)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.Files))))

	handler.NewHomeHandler(deps.Articles, deps.Users, deps.Views, deps.HomeArticleLimit).RegisterRoutes(r)
	handler.NewArticleHandler(deps.Articles, deps.Sessions, deps.Views).RegisterRoutes(r)
	handler.NewAuthHandler(deps.Auth, deps.Sessions, deps.Views).RegisterRoutes(r)
	handler.NewResetHandler(deps.Resets, deps.Sessions, deps.Views).RegisterRoutes(r)
	handler.NewSettingsHandler(deps.Accounts, deps.Sessions, deps.Views).RegisterRoutes(r)
	handler.NewContactHandler(deps.Contact, deps.Sessions, deps.Views).RegisterRoutes(r)
	handler.NewStaticHandler(deps.Views).RegisterRoutes(r)

	return r
}
