package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vetclinic/internal/config"
	"vetclinic/internal/db"
	httpserver "vetclinic/internal/http"
	"vetclinic/internal/logging"
	"vetclinic/internal/mail"
	"vetclinic/internal/repository"
)

func main() {
	log := logging.NewDefault()
	if err := run(log); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer, err = mail.NewSMTPMailer(cfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn(ctx, "no SMTP host configured, mail is logged instead of sent")
		mailer = mail.NewLogMailer(cfg.PublicBaseURL, log)
	}

	store := repository.NewPostgresStore(pool)
	server := httpserver.NewServer(cfg, store, mailer, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
