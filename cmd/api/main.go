package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neighborguard/internal/adapters/auth/iam"
	pg "neighborguard/internal/adapters/storage/postgres"
	"neighborguard/internal/config"
	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/jobs"
	"neighborguard/internal/router"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := config.NewLogger(cfg, cfg.AppName)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Logger:             log,
		DevDefaultUser:     cfg.DevDefaultUser,
		DefaultOwnerEmail:  cfg.DefaultOwnerEmail,
		DefaultOwnerName:   cfg.DefaultOwnerName,
		HomeRecentFallback: cfg.HomeRecentFallback,
	}

	if cfg.IAMBaseURL != "" {
		v, err := iam.NewVerifier(iam.Config{
			BaseURL: cfg.IAMBaseURL,
			APIKey:  cfg.IAMAPIKey,
			Timeout: cfg.IAMTimeoutDuration(),
		})
		if err != nil {
			return fmt.Errorf("iam verifier: %w", err)
		}
		opts.AuthVerifier = v
		log.Info().Str("iam_base_url", cfg.IAMBaseURL).Msg("bearer token verification enabled")
	} else {
		log.Warn().Msg("no IAM configured, running in dev identity mode (X-User-ID)")
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := pg.MigrateUp(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
		}

		var err error
		db, err = pg.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		opts.DB = db
		log.Info().Msg("using postgres storage")
	} else {
		log.Info().Msg("DATABASE_URL not set, using in-memory storage")
	}

	var riverClient *river.Client[pgx.Tx]
	if cfg.NotifyMode == config.NotifyModeQueue {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open pgx pool: %w", err)
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := jobs.MigrateRiver(ctx, pool); err != nil {
				return err
			}
		}

		var clientErr error
		opts.WrapNotifier = func(direct notifications.Notifier) notifications.Notifier {
			riverClient, clientErr = jobs.NewClient(pool, direct, log.With().Str("component", "jobs").Logger())
			if clientErr != nil {
				return direct
			}
			return jobs.NewQueueNotifier(riverClient)
		}
		defer func() {
			if riverClient != nil {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = riverClient.Stop(stopCtx)
			}
		}()

		handler := router.NewRouter(opts)
		if clientErr != nil {
			return fmt.Errorf("river client: %w", clientErr)
		}
		if err := riverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river: %w", err)
		}
		log.Info().Msg("notification fan-out runs on the job queue")
		return serve(ctx, cfg.HTTPAddr, handler, log)
	}

	return serve(ctx, cfg.HTTPAddr, router.NewRouter(opts), log)
}

func serve(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
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

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
