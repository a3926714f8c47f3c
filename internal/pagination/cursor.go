package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BoardPageSize is the number of topics per board listing page.
	BoardPageSize = 40

	// TopicPageSize is the number of messages per topic page.
	TopicPageSize = 20
)

var (
	// ErrNoOffset is returned when a listing URL has no ".offset" part in its query.
	// Such URLs are not corrected; callers always pass listing URLs taken from the forum.
	ErrNoOffset = errors.New("listing URL has no offset parameter")

	// ErrInvalidPageSize is returned by a Cursor whose PerPage is not positive.
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// TotalPages converts the number reported by the page-link controls into a
// page count. A listing without page links has exactly one page.
func TotalPages(linkCount int) int {
	if linkCount < 1 {
		return 1
	}
	return linkCount
}

// Cursor rewrites listing URLs for arbitrary page indexes.
type Cursor struct {
	// PerPage is the number of items shown on one page of the listing.
	PerPage int
}

// NewCursor returns a Cursor for listings with perPage items per page.
func NewCursor(perPage int) Cursor {
	return Cursor{PerPage: perPage}
}

// PageURL returns base with its offset replaced by pageIndex*PerPage.
// pageIndex is 0-based, so PageURL(base, 0) addresses the first page.
func (c Cursor) PageURL(base string, pageIndex int) (string, error) {
	if c.PerPage <= 0 {
		return "", ErrInvalidPageSize
	}
	if pageIndex < 0 {
		return "", fmt.Errorf("negative page index %d", pageIndex)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", base, err)
	}

	parts := strings.Split(u.RawQuery, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %s", ErrNoOffset, base)
	}
	parts[1] = strconv.Itoa(pageIndex * c.PerPage)
	u.RawQuery = strings.Join(parts, ".")

	return u.String(), nil
}

// Remaining returns the URLs of pages 1..total-1 of the listing at base.
// The first page is the one the caller already holds.
func (c Cursor) Remaining(base string, total int) ([]string, error) {
	if total <= 1 {
		return nil, nil
	}

	urls := make([]string, 0, total-1)
	for i := 1; i < total; i++ {
		u, err := c.PageURL(base, i)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}
