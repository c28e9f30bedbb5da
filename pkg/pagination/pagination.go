package pagination

import "strconv"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 24
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the slice of results returned to the caller.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage treats anything below 1 as the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize returns params with page and limit clamped.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset is the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewPage builds the response metadata for a total row count.
func NewPage(p Params, total int64) Page {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Page{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}

// ParseParams reads page and limit query values, ignoring malformed input.
func ParseParams(page, limit string) Params {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return Params{Page: p, Limit: l}.Normalize()
}
