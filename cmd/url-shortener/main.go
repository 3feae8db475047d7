package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/R4255/URLShortener/internal/app"
	"github.com/R4255/URLShortener/internal/config"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	return app.Run(ctx, cfg, newLogger(cfg))
}

func newLogger(cfg *config.Config) *httplog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	return httplog.NewLogger("url-shortener", httplog.Options{
		JSON:             cfg.Env == config.EnvProd,
		LogLevel:         level,
		Concise:          !cfg.Debug,
		RequestHeaders:   cfg.Debug,
		MessageFieldName: "message",
	})
}
