package shared

import "strings"

// Paging limits for list queries
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter represents list query options. Filters holds exact-match column
// filters such as a budget type.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]string
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]string{},
	}
}

// Normalized returns a copy with the page clamped to at least 1, the page
// size to 1..MaxPageSize and the search term trimmed
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.PageSize
}

// Limit returns the row limit for the filter's page
func (f Filter) Limit() int {
	return f.Normalized().PageSize
}

// Where returns the exact-match value for key, or "" when unset
func (f Filter) Where(key string) string {
	return f.Filters[key]
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps a page of items with its totals
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
