// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, the access
// events recorded on every redirect and the aggregates built from them.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrInvalidURL is returned when the original URL cannot be stored, e.g. it is too long.
	ErrInvalidURL = errors.New("invalid url")
	// ErrAccessNotRecorded is returned together with a resolved URL when the access event could not be saved.
	ErrAccessNotRecorded = errors.New("access not recorded")
)

// MaxOriginalURLLength is the maximum length of a normalized original URL.
const MaxOriginalURLLength = 2048

// URL represents a shortened URL.
type URL struct {
	ID          string    // ID is the unique identifier of the URL.
	ShortCode   string    // ShortCode is the code used in the public redirect path.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	OwnerID     string    // OwnerID is the optional identifier of the user who created the URL.
	Clicks      int64     // Clicks is the number of recorded redirects.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
}

// AccessEvent is a single recorded redirect.
type AccessEvent struct {
	ID         string
	URLID      string
	AccessedAt time.Time
	IPAddress  string
	UserAgent  string
	Referrer   string
}

// Visit holds the client metadata captured at redirect time.
type Visit struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// DailyStat is the number of clicks on a single calendar date.
type DailyStat struct {
	Date   time.Time
	Clicks int64
}

// URLStats contains the click analytics of a shortened URL.
type URLStats struct {
	URL          *URL
	DailyStats   []DailyStat
	RecentAccess []AccessEvent
}

// URLPage is a single page of a URL listing.
type URLPage struct {
	URLs        []*URL
	Total       int64
	Pages       int
	CurrentPage int
	PerPage     int
}
