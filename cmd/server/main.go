package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lewebsimple/autologin/config"
	"github.com/lewebsimple/autologin/internal/email"
	"github.com/lewebsimple/autologin/internal/health"
	"github.com/lewebsimple/autologin/internal/infrastructure/memory"
	"github.com/lewebsimple/autologin/internal/infrastructure/postgres"
	"github.com/lewebsimple/autologin/internal/infrastructure/redis"
	ctxlog "github.com/lewebsimple/autologin/internal/log"
	"github.com/lewebsimple/autologin/internal/metrics"
	"github.com/lewebsimple/autologin/internal/password"
	"github.com/lewebsimple/autologin/internal/repository"
	"github.com/lewebsimple/autologin/internal/session"
	httptransport "github.com/lewebsimple/autologin/internal/transport/http"
	"github.com/lewebsimple/autologin/internal/transport/http/handler"
	"github.com/lewebsimple/autologin/internal/transport/http/middleware"
	"github.com/lewebsimple/autologin/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	// Endpoint
	install := usecase.NewInstallUsecase(postgres.NewOptionRepository(pool), logger)
	settings, created, err := install.Install(ctx)
	if err != nil {
		stop()
		log.Fatalf("install: %v", err)
	}
	logger.Info("endpoint loaded", "endpoint", settings.Endpoint, "created", created)

	deps := map[string]health.Pinger{"postgres": pool}

	// Records
	var records repository.RecordStore
	switch cfg.StoreBackend {
	case "memory":
		store := memory.NewRecordStore()
		janitor := memory.NewJanitor(store, cfg.MemorySweepSpec, logger)
		go func() {
			if err := janitor.Start(ctx); err != nil {
				logger.Error("memory janitor", "error", err)
			}
		}()
		records = store
	default:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		deps["redis"] = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		records = redis.NewRecordStore(client, cfg.RedisKeyPrefix)
	}

	// Links
	links := usecase.NewLinkUsecase(
		records,
		postgres.NewUserRepository(pool),
		password.NewArgon2idHasher(password.DefaultParams),
		email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger),
		usecase.LinkConfig{
			BaseURL:        cfg.BaseURL,
			Endpoint:       settings.Endpoint,
			ValidateDomain: cfg.ValidateDomain,
			CheckSignature: cfg.CheckSignature,
			DefaultTTL:     cfg.LinkTTL,
		},
		logger,
	)
	linkHandler := handler.NewLinkHandler(links, logger)

	// Sessions
	sessions := session.NewCookieSessions([]byte(cfg.JWTSecret), session.Config{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.SecureCookies(),
	})
	autoLogin := middleware.AutoLogin(links, sessions, usecase.Messages(cfg.Messages()), logger)

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, linkHandler, autoLogin, []byte(cfg.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "base_url", cfg.BaseURL, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
