package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/api"
	"github.com/Estebaan93/RunnConnectAPI/config"
	"github.com/Estebaan93/RunnConnectAPI/i18n"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Estebaan93/RunnConnectAPI/telemetry"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	if err := resolveSecrets(ctx); err != nil {
		return err
	}

	tracing, err := telemetry.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	db, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	profiles := participant.Provider(db)
	if cfg.ProfileCacheTTL > 0 {
		profiles = participant.NewCachedProvider(db, cfg.ProfileCacheTTL)
	}

	service := registration.NewService(db, db, profiles,
		registration.WithLogger(logger),
		registration.WithTracer(tracing.TracerProvider().Tracer("github.com/Estebaan93/RunnConnectAPI/registration")),
		registration.WithMaxAttempts(cfg.AdmissionAttempts),
	)

	translator, err := i18n.NewTranslator(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	env := api.LOCAL
	if cfg.Env == config.PROD {
		env = api.PROD
	}

	handler, err := api.NewAPI(service, logger, env, translator, api.NewTokenVerifier(cfg.JWTSecret), cfg.CORSAllowedOrigins).Handler()
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}

	s := &http.Server{
		Handler:           handler,
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", s.Addr, "store", cfg.Store, "env", cfg.Env)
		serveErr <- s.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
