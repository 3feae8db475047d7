package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/R4255/URLShortener/internal/entity"
)

const dateLayout = "2006-01-02"

// reservedCodes are first path segments served by fixed routes, so a short
// code equal to one of them would never redirect.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"docs":    {},
	"health":  {},
	"metrics": {},
	"swagger": {},
}

func isReservedCode(code string) bool {
	_, ok := reservedCodes[strings.ToLower(code)]
	return ok
}

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	URL        string `json:"url" validate:"required,max=2048"`
	CustomCode string `json:"custom_code" validate:"omitempty,max=10,alphanum,notreserved"`
	OwnerID    string `json:"user_id" validate:"omitempty,max=36"`
}

// urlResponse represents a shortened URL.
type urlResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
	OwnerID     string    `json:"user_id,omitempty"`
}

func toURLResponse(baseURL string, url *entity.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		ShortURL:    baseURL + "/" + url.ShortCode,
		CreatedAt:   url.CreatedAt,
		Clicks:      url.Clicks,
		OwnerID:     url.OwnerID,
	}
}

// urlListResponse represents a page of shortened URLs.
type urlListResponse struct {
	URLs        []urlResponse `json:"urls"`
	Total       int64         `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
	PerPage     int           `json:"per_page"`
}

func toURLListResponse(baseURL string, page *entity.URLPage) urlListResponse {
	urls := make([]urlResponse, 0, len(page.URLs))
	for _, url := range page.URLs {
		urls = append(urls, toURLResponse(baseURL, url))
	}

	return urlListResponse{
		URLs:        urls,
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
	}
}

type dailyStat struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

type accessResponse struct {
	AccessedAt time.Time `json:"accessed_at"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
}

// urlStatsResponse represents the click analytics of a shortened URL.
type urlStatsResponse struct {
	OriginalURL  string           `json:"original_url"`
	ShortCode    string           `json:"short_code"`
	ShortURL     string           `json:"short_url"`
	CreatedAt    time.Time        `json:"created_at"`
	TotalClicks  int64            `json:"total_clicks"`
	DailyStats   []dailyStat      `json:"daily_stats"`
	RecentAccess []accessResponse `json:"recent_access"`
}

func toURLStatsResponse(baseURL string, stats *entity.URLStats) urlStatsResponse {
	daily := make([]dailyStat, 0, len(stats.DailyStats))
	for _, s := range stats.DailyStats {
		daily = append(daily, dailyStat{
			Date:   s.Date.Format(dateLayout),
			Clicks: s.Clicks,
		})
	}

	recent := make([]accessResponse, 0, len(stats.RecentAccess))
	for _, a := range stats.RecentAccess {
		recent = append(recent, accessResponse{
			AccessedAt: a.AccessedAt,
			IPAddress:  a.IPAddress,
			UserAgent:  a.UserAgent,
			Referrer:   a.Referrer,
		})
	}

	return urlStatsResponse{
		OriginalURL:  stats.URL.OriginalURL,
		ShortCode:    stats.URL.ShortCode,
		ShortURL:     baseURL + "/" + stats.URL.ShortCode,
		CreatedAt:    stats.URL.CreatedAt,
		TotalClicks:  stats.URL.Clicks,
		DailyStats:   daily,
		RecentAccess: recent,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

// requestBaseURL returns the configured base URL, or the scheme and host the request was sent to.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}
