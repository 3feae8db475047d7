package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/R4255/URLShortener/internal/entity"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrMaxRetriesExceeded is returned when no unique short code was found within the retry budget.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

const (
	maxRetries = 5

	statsWindow       = 30 * 24 * time.Hour
	recentAccessLimit = 100

	DefaultPerPage = 10
	MaxPerPage     = 100
)

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) error
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]*entity.URL, int64, error)
	Remove(ctx context.Context, shortCode string) error
}

type accessRepository interface {
	Record(ctx context.Context, event *entity.AccessEvent) error
	RetrieveDailyStats(ctx context.Context, urlID string, since time.Time) ([]entity.DailyStat, error)
	RetrieveRecent(ctx context.Context, urlID string, limit int) ([]entity.AccessEvent, error)
}

// ShortenParams describes a shortening request.
type ShortenParams struct {
	OriginalURL string
	CustomCode  string
	OwnerID     string
}

// ListParams describes a listing request. Page and PerPage are clamped by ListURLs.
type ListParams struct {
	OwnerID string
	Page    int
	PerPage int
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithClock replaces the time source used for created_at and accessed_at.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithIDFunc replaces the identifier factory used for new records.
func WithIDFunc(newID func() string) Option {
	return func(uc *URLUseCase) {
		uc.newID = newID
	}
}

// URLUseCase implements shortening, redirection, listing and analytics of URLs.
type URLUseCase struct {
	urlRepo    urlRepository
	accessRepo accessRepository
	gen        CodeGenerator
	now        func() time.Time
	newID      func() string
}

// New returns a URLUseCase that uses UTC wall-clock time and random UUIDs
// unless overridden by opts.
func New(urlRepo urlRepository, accessRepo accessRepository, gen CodeGenerator, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:    urlRepo,
		accessRepo: accessRepo,
		gen:        gen,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// NormalizeURL prepends https:// to URLs without an http or https scheme.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// ShortenURL returns the URL already stored for the normalized original URL,
// or creates a new one. The boolean result reports whether a record was created.
func (uc *URLUseCase) ShortenURL(ctx context.Context, params ShortenParams) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	originalURL := NormalizeURL(params.OriginalURL)
	if utf8.RuneCountInString(originalURL) > entity.MaxOriginalURLLength {
		return nil, false, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	existing, err := uc.urlRepo.RetrieveByOriginalURL(ctx, originalURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to look up original url: %w", op, err)
	}

	url := &entity.URL{
		ID:          uc.newID(),
		OriginalURL: originalURL,
		OwnerID:     params.OwnerID,
		CreatedAt:   uc.now(),
	}

	if params.CustomCode != "" {
		url.ShortCode = params.CustomCode

		if err := uc.urlRepo.Save(ctx, url); err != nil {
			return nil, false, fmt.Errorf("%s: failed to save url with custom code: %w", op, err)
		}

		return url, true, nil
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := uc.gen.Generate(originalURL, i)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		url.ShortCode = shortCode

		if err := uc.urlRepo.Save(ctx, url); err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, true, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the URL for the short code and records the visit.
// If the visit cannot be recorded the URL is still returned, together with an
// error wrapping entity.ErrAccessNotRecorded.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string, visit entity.Visit) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	event := &entity.AccessEvent{
		ID:         uc.newID(),
		URLID:      url.ID,
		AccessedAt: uc.now(),
		IPAddress:  visit.IPAddress,
		UserAgent:  visit.UserAgent,
		Referrer:   visit.Referrer,
	}

	if err := uc.accessRepo.Record(ctx, event); err != nil {
		return url, fmt.Errorf("%s: %w: %w", op, entity.ErrAccessNotRecorded, err)
	}

	url.Clicks++

	return url, nil
}

// DeactivateURL deletes the URL with the short code together with its access events.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeactivateURL"

	if err := uc.urlRepo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return nil
}

// ListURLs returns a page of URLs ordered from the most recent. Page is
// capped so that the offset it implies fits in an int.
func (uc *URLUseCase) ListURLs(ctx context.Context, params ListParams) (*entity.URLPage, error) {
	const op = "usecase.URLUseCase.ListURLs"

	perPage := params.PerPage
	switch {
	case perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}

	page := min(max(params.Page, 1), math.MaxInt/perPage)

	urls, total, err := uc.urlRepo.List(ctx, params.OwnerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return &entity.URLPage{
		URLs:        urls,
		Total:       total,
		Pages:       int((total + int64(perPage) - 1) / int64(perPage)),
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// GetURLStats returns the click total, the daily histogram of the last 30
// days and the most recent access events of the URL.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URLStats, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	stats := &entity.URLStats{URL: url}
	since := uc.now().Add(-statsWindow)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		daily, err := uc.accessRepo.RetrieveDailyStats(gCtx, url.ID, since)
		if err != nil {
			return err
		}
		stats.DailyStats = daily
		return nil
	})

	g.Go(func() error {
		recent, err := uc.accessRepo.RetrieveRecent(gCtx, url.ID, recentAccessLimit)
		if err != nil {
			return err
		}
		stats.RecentAccess = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate access events: %w", op, err)
	}

	return stats, nil
}
