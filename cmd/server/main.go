package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tarnblog/tarn/internal/api"
	"github.com/tarnblog/tarn/internal/app/service"
	"github.com/tarnblog/tarn/internal/common/security"
	"github.com/tarnblog/tarn/internal/domain/repository"
	"github.com/tarnblog/tarn/internal/platform/cache"
	"github.com/tarnblog/tarn/internal/platform/config"
	"github.com/tarnblog/tarn/internal/platform/database"
	"github.com/tarnblog/tarn/internal/platform/logging"
	"github.com/tarnblog/tarn/internal/platform/mail"
	"github.com/tarnblog/tarn/internal/web/session"
	"github.com/tarnblog/tarn/internal/web/view"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.Env)

	ctx := context.Background()

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	slog.Info("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	var store cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		store = redisCache
		slog.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		store = cache.NewMemory()
		slog.Warn("REDIS_ADDR not set, using in-process cache")
	}

	var mailer mail.Sender
	if cfg.MailEnabled {
		mailer = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	} else {
		mailer = mail.NewRecorder()
		slog.Warn("outgoing mail disabled, messages are recorded only")
	}

	views, err := view.NewRenderer()
	if err != nil {
		return err
	}

	userRepo := repository.NewPgUserRepository(db, store)
	articleRepo := repository.NewPgArticleRepository(db, store)
	resetRepo := repository.NewPgResetRepository(db)

	signer := security.NewSigner(cfg.SessionSecret)
	sessions := session.NewManager(signer, userRepo)

	router := api.NewRouter(api.RouterDeps{
		Users:            userRepo,
		Auth:             service.NewAuthService(userRepo, mailer),
		Articles:         service.NewArticleService(articleRepo),
		Accounts:         service.NewAccountService(userRepo, mailer),
		Resets:           service.NewResetService(userRepo, resetRepo, mailer, cfg.BaseURL),
		Contact:          service.NewContactService(mailer, cfg.AdminEmail),
		Sessions:         sessions,
		Views:            views,
		HomeArticleLimit: cfg.HomeArticleLimit,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
