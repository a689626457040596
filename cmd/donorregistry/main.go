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

	"donorregistry/internal/adapter/google"
	adapthttp "donorregistry/internal/adapter/http"
	"donorregistry/internal/adapter/memory"
	"donorregistry/internal/adapter/postgres"
	"donorregistry/internal/app"
	"donorregistry/internal/config"
	"donorregistry/internal/domain"
)

type store interface {
	domain.UserRepository
	domain.RegistryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.Development() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		db = pg
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		db = memory.New()
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; using development secret")
	}

	var (
		verifier app.AssertionVerifier
		opts     = []adapthttp.Option{
			adapthttp.WithLogger(logger),
			adapthttp.WithWebDir(cfg.WebDir),
			adapthttp.WithPolicy(adapthttp.Policy{
				InstitutionCreate: cfg.InstitutionCreate(),
				DonorList:         cfg.DonorList(),
			}),
		}
	)
	if cfg.GoogleEnabled() {
		v, provider, err := google.NewVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return err
		}
		verifier = v
		var flow adapthttp.CodeFlow
		if cfg.CodeFlowEnabled() {
			flow = google.NewCodeFlow(provider, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		}
		opts = append(opts, adapthttp.WithGoogle(cfg.GoogleClientID, flow))
	}

	identity := app.NewIdentityService(db, verifier, logger)
	tokens := app.NewTokenService(cfg.Secret(), cfg.JWTIssuer, cfg.TokenTTL)
	registry := app.NewRegistryService(db)

	if err := identity.SeedAdministrators(ctx, cfg.AdminSeeds()); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           adapthttp.New(identity, tokens, registry, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
