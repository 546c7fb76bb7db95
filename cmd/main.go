package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cphorme/internal/auth"
	"cphorme/internal/backend"
	"cphorme/internal/config"
	"cphorme/internal/daemon"
	"cphorme/internal/i18n"
	"cphorme/internal/logger"
	"cphorme/internal/middleware"
	"cphorme/internal/storage"
	"cphorme/internal/telemetry"
	"cphorme/internal/validator"
	"cphorme/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	probeInterval   = time.Minute
	probeTimeout    = 5 * time.Second
	sweepInterval   = 10 * time.Minute
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()

	// Telemetry first so the logger can export through it
	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to shutdown telemetry:", err)
		}
	}()

	log := logger.New(*cfg)

	translator := i18n.NewTranslator(i18n.EN)
	if err := translator.LoadTranslations(); err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	authenticator, err := auth.NewAuthenticator(log, cfg.Auth)
	if err != nil {
		return err
	}

	client, err := backend.New(cfg.Backend, nil)
	if err != nil {
		return err
	}

	sessionStorage, err := storage.NewFactory(cfg.Session).CreateStorage()
	if err != nil {
		return err
	}
	if sessionStorage != nil {
		defer sessionStorage.Close()
	}

	blocker := middleware.NewIPBlocker(log, web.BlockDuration)

	daemons := daemon.NewManager(log, 2*time.Second)
	daemons.Add("backend-probe", daemon.NewBackendProbe(log, client, probeTimeout).Task(probeInterval))
	daemons.Add("blocklist-sweep", daemon.SweepTask(log, blocker, sweepInterval))
	daemons.Start(ctx)
	defer daemons.Wait()

	app := web.NewApp(web.Dependencies{
		Config:        *cfg,
		Logger:        log,
		Telemetry:     tel,
		Backend:       client,
		Authenticator: authenticator,
		Translator:    translator,
		Validator:     validator.New(),
		Storage:       sessionStorage,
		Blocker:       blocker,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", addr, "backend", cfg.Backend.BaseURL, "sessions", cfg.Session.Storage)
		serverErr <- app.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		stop()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
