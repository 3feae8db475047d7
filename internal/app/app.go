package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/R4255/URLShortener/internal/adapter/repository/postgres"
	"github.com/R4255/URLShortener/internal/config"
	"github.com/R4255/URLShortener/internal/metrics"
	"github.com/R4255/URLShortener/internal/usecase"
	"github.com/R4255/URLShortener/migrations"
	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	delivery "github.com/R4255/URLShortener/internal/adapter/delivery/http"
	pgpkg "github.com/R4255/URLShortener/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

// Run connects to the database, applies migrations and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	db, err := pgpkg.New(
		ctx,
		cfg.Postgres.DSN(),
		pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		pgpkg.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pgpkg.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	gen, err := usecase.NewGenerator(cfg.CodeStrategy, cfg.ShortCodeLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	urlRepo := postgres.NewURLRepository(db)
	accessRepo := postgres.NewAccessRepository(db)
	urlUseCase := usecase.New(urlRepo, accessRepo, gen)

	r := delivery.NewRouter(logger, urlUseCase, db, metrics.New(), delivery.Options{
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("code_strategy", cfg.CodeStrategy),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
