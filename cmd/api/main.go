// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Gitpress HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Wire the session codec and OAuth service.
//  4. Wire the content repositories and domain services.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/gitpress/internal/api"
	"github.com/taibuivan/gitpress/internal/article"
	"github.com/taibuivan/gitpress/internal/auth"
	"github.com/taibuivan/gitpress/internal/media"
	"github.com/taibuivan/gitpress/internal/platform/config"
	"github.com/taibuivan/gitpress/internal/platform/constants"
	"github.com/taibuivan/gitpress/internal/platform/github"
	"github.com/taibuivan/gitpress/internal/platform/middleware"
	"github.com/taibuivan/gitpress/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Gitpress] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("content_repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo),
		slog.String("branch", cfg.GitHubBranch),
	)

	// Root context for background middleware workers (rate limiter cleanup).
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ── 3. Session Codec + OAuth Service ──────────────────────────────────
	codec := sec.NewSessionCodec(cfg.SessionSecret, constants.AppName, constants.SessionCookieTTL)
	authService := auth.NewService(cfg, http.DefaultClient)

	// newClient binds a per-request GitHub client to the caller's token.
	// The credentials never outlive the request they arrived on.
	newClient := func(token string) *github.Client {
		return github.NewClient(github.Options{
			BaseURL: cfg.GitHubAPIBaseURL,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
		}, token)
	}

	// ── 4. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckContentRepo: func() error {
			return pingGitHub(cfg.GitHubAPIBaseURL)
		},
	}, log)

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	articleRepository := article.NewGitHubRepository(cfg.GitHubBranch)
	metaRepository := article.NewGitHubMetaRepository(cfg.GitHubBranch)
	articleService := article.NewService(articleRepository, metaRepository, log)
	articleHandler := article.NewHandler(articleService)

	mediaRepository := media.NewGitHubRepository(cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch, cfg.CDNBaseURL)
	mediaService := media.NewService(mediaRepository, log)
	mediaHandler := media.NewHandler(mediaService)

	authHandler := auth.NewHandler(authService, codec, cfg.IsProduction())

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	session := middleware.Session(authService, codec, newClient, cfg.IsProduction())

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Article:   articleHandler,
		Media:     mediaHandler,
	}

	server := api.NewServer(rootCtx, cfg, log, session, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// pingGitHub checks that the GitHub API answers at all. It uses the
// unauthenticated rate-limit endpoint so readiness does not consume any
// user's token.
func pingGitHub(apiBaseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"/rate_limit", nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("github api unavailable: status %d", resp.StatusCode)
	}
	return nil
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
