package store

import "math"

// Page size bounds for offset pagination.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageParams contains offset pagination request parameters.
type PageParams struct {
	Page  int // 1-based page number
	Limit int // items per page
}

// Normalize applies defaults and clamps out-of-range values.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// Offset returns the number of items to skip. It saturates at
// math.MaxInt for pages too far out to address.
func (p PageParams) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Window returns the [start, end) slice bounds of this page in a
// collection of total items.
func (p PageParams) Window(total int) (start, end int) {
	start = min(p.Offset(), total)
	end = min(start+p.Limit, total)
	return start, end
}

// PaginatedResult contains one page of items and the size of the full set.
type PaginatedResult[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// TotalPages returns ceil(Total / Limit).
func (r *PaginatedResult[T]) TotalPages() int {
	if r.Limit <= 0 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}

// HasNext reports whether a later page exists.
func (r *PaginatedResult[T]) HasNext() bool {
	return r.Page < r.TotalPages()
}

// HasPrev reports whether an earlier page exists.
func (r *PaginatedResult[T]) HasPrev() bool {
	return r.Page > 1
}

// EmptyPage returns a page with no items for the given parameters.
func EmptyPage[T any](p PageParams) *PaginatedResult[T] {
	return &PaginatedResult[T]{Items: []T{}, Page: p.Page, Limit: p.Limit}
}
