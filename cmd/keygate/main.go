package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keygate/keygate/internal/app"
	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/platform/cache"
	"github.com/keygate/keygate/internal/platform/db"
	"github.com/keygate/keygate/internal/rbac"
	"github.com/keygate/keygate/internal/token"
	"github.com/keygate/keygate/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	userService := users.NewService(users.NewRepository(dbpool))
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL())
	revoker := token.NewRevoker(redisClient)

	registry := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(registry)
	evaluator := rbac.NewEvaluator(registry)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: auth.NewHandler(logger, userService, issuer, revoker),
		AuthMiddleware: auth.Middleware{
			Logger:  logger,
			Users:   userService,
			Issuer:  issuer,
			Revoker: revoker,
			Metrics: metrics,
		},
		RBACHandler: rbac.NewHandler(logger, rbacService, evaluator, userService),
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
