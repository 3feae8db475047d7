// Package http provides the HTTP delivery layer for the URL shortener service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, and formatting responses.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/R4255/URLShortener/docs"
	"github.com/R4255/URLShortener/internal/entity"
	"github.com/R4255/URLShortener/internal/metrics"
	"github.com/R4255/URLShortener/internal/usecase"
	"github.com/R4255/URLShortener/pkg/middleware/recoverer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
)

type urlUseCase interface {
	ShortenURL(ctx context.Context, params usecase.ShortenParams) (*entity.URL, bool, error)
	ResolveShortCode(ctx context.Context, shortCode string, visit entity.Visit) (*entity.URL, error)
	DeactivateURL(ctx context.Context, shortCode string) error
	ListURLs(ctx context.Context, params usecase.ListParams) (*entity.URLPage, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URLStats, error)
}

// Options configures the router.
type Options struct {
	// BaseURL is the prefix of the returned short URLs. When empty, the scheme and host of the request are used.
	BaseURL        string
	AllowedOrigins []string
}

// getValidate initializes a new validator instance that reports fields by their JSON names.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !isReservedCode(fl.Field().String())
	})

	return validate
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, db pinger, m *metrics.Metrics, opts Options) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	r.Use(m.Middleware)

	r.Get("/health", handleHealth(db))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Route("/api", func(r chi.Router) {
		validate := getValidate()

		r.Post("/shorten", handleShortenURL(urlUseCase, validate, m, opts.BaseURL))
		r.Get("/stats/{shortCode}", handleGetURLStats(urlUseCase, opts.BaseURL))

		r.Route("/urls", func(r chi.Router) {
			r.Get("/", handleListURLs(urlUseCase, opts.BaseURL))
			r.Delete("/{shortCode}", handleDeleteURL(urlUseCase))
		})
	})

	r.Get("/{shortCode}", handleRedirect(urlUseCase, m))

	return r
}
