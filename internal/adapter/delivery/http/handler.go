package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/R4255/URLShortener/internal/entity"
	"github.com/R4255/URLShortener/internal/metrics"
	"github.com/R4255/URLShortener/internal/usecase"
	"github.com/R4255/URLShortener/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Column widths of the url_accesses table.
const (
	maxIPAddressLength = 45
	maxUserAgentLength = 512
	maxReferrerLength  = 2048
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// handleHealth reports whether the server is up and the database reachable.
func handleHealth(db pinger) http.HandlerFunc {
	const op = "adapter.delivery.http.handleHealth"

	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, healthResponse{Status: "unhealthy", Error: err.Error()})
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, healthResponse{Status: "healthy", Database: "connected"})
	}
}

// handleShortenURL handles POST requests to shorten a URL.
//
// A URL that was shortened before is returned as is with 200, a new one is
// created with 201. A custom code that is already taken is rejected with 400.
func handleShortenURL(uc urlUseCase, validate *validator.Validate, m *metrics.Metrics, baseURL string) http.HandlerFunc {
	const op = "adapter.delivery.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidRequestBodyResponse)
			return
		}

		if strings.TrimSpace(req.URL) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.URLRequiredResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, created, err := uc.ShortenURL(r.Context(), usecase.ShortenParams{
			OriginalURL: req.URL,
			CustomCode:  req.CustomCode,
			OwnerID:     req.OwnerID,
		})
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrShortCodeExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.CustomCodeInUseResponse)
			case errors.Is(err, entity.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.CreateFailedResponse)
			}
			return
		}

		m.URLShortened(created)

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}

		render.Status(r, status)
		render.JSON(w, r, toURLResponse(requestBaseURL(r, baseURL), url))
	}
}

// handleRedirect resolves the short code, records the visit and redirects to
// the original URL. A visit that could not be recorded does not prevent the redirect.
func handleRedirect(uc urlUseCase, m *metrics.Metrics) http.HandlerFunc {
	const op = "adapter.delivery.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := uc.ResolveShortCode(r.Context(), shortCode, visitFromRequest(r))
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			case errors.Is(err, entity.ErrAccessNotRecorded) && url != nil:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
				m.AccessRecordFailed()
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
				return
			}
		}

		m.Redirected()

		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}

// handleGetURLStats handles GET requests for the click analytics of a short code.
func handleGetURLStats(uc urlUseCase, baseURL string) http.HandlerFunc {
	const op = "adapter.delivery.http.handleGetURLStats"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		stats, err := uc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, entity.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toURLStatsResponse(requestBaseURL(r, baseURL), stats))
	}
}

// handleListURLs handles GET requests for a page of URLs. Missing or
// malformed page and per_page values fall back to the defaults.
func handleListURLs(uc urlUseCase, baseURL string) http.HandlerFunc {
	const op = "adapter.delivery.http.handleListURLs"

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		page, _ := strconv.Atoi(query.Get("page"))
		perPage, _ := strconv.Atoi(query.Get("per_page"))

		urls, err := uc.ListURLs(r.Context(), usecase.ListParams{
			OwnerID: query.Get("user_id"),
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toURLListResponse(requestBaseURL(r, baseURL), urls))
	}
}

// handleDeleteURL handles DELETE requests removing a URL and its access history.
func handleDeleteURL(uc urlUseCase) http.HandlerFunc {
	const op = "adapter.delivery.http.handleDeleteURL"
	const successMsg = "URL Deleted Successfully"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		if err := uc.DeactivateURL(r.Context(), shortCode); err != nil {
			if errors.Is(err, entity.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.URLNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.DeleteFailedResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.MessageResponse{Message: successMsg})
	}
}

func visitFromRequest(r *http.Request) entity.Visit {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return entity.Visit{
		IPAddress: truncate(ip, maxIPAddressLength),
		UserAgent: truncate(r.UserAgent(), maxUserAgentLength),
		Referrer:  truncate(r.Referer(), maxReferrerLength),
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
