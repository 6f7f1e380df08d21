package store

import (
	"cmp"
	"slices"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
)

// BlogSort is a blog list ordering.
type BlogSort string

// Supported orderings. A leading "-" means descending.
const (
	SortDateDesc  BlogSort = "-date"
	SortDateAsc   BlogSort = "date"
	SortTitleAsc  BlogSort = "title"
	SortTitleDesc BlogSort = "-title"
)

// DefaultBlogSort lists newest blogs first.
const DefaultBlogSort = SortDateDesc

// ParseBlogSort validates a sort key. An empty key yields the default.
func ParseBlogSort(s string) (BlogSort, bool) {
	switch BlogSort(s) {
	case "":
		return DefaultBlogSort, true
	case SortDateDesc, SortDateAsc, SortTitleAsc, SortTitleDesc:
		return BlogSort(s), true
	default:
		return "", false
	}
}

// Descending reports whether the primary key is sorted descending.
func (s BlogSort) Descending() bool {
	return len(s) > 0 && s[0] == '-'
}

// ByTitle reports whether the primary key is the title.
func (s BlogSort) ByTitle() bool {
	return s == SortTitleAsc || s == SortTitleDesc
}

// BlogQuery filters, orders and pages a blog listing.
type BlogQuery struct {
	// IDs restricts the result to these blogs (e.g. full-text matches).
	// Nil means no restriction; an empty non-nil slice matches nothing.
	IDs []string
	// TagIDs keeps blogs carrying at least one of these tags.
	TagIDs []string
	// From and To are inclusive bounds on CreatedAt. Zero means unbounded.
	From time.Time
	To   time.Time

	Sort BlogSort
	PageParams
}

// Normalize applies the default sort and page parameters.
func (q *BlogQuery) Normalize() {
	if q.Sort == "" {
		q.Sort = DefaultBlogSort
	}
	q.PageParams.Normalize()
}

// MatchesNothing reports whether the ID restriction excludes every blog.
func (q *BlogQuery) MatchesNothing() bool {
	return q.IDs != nil && len(q.IDs) == 0
}

// Filter returns a predicate implementing the query's filters.
// Backends without a query language apply it while scanning.
func (q *BlogQuery) Filter() func(*domain.Blog) bool {
	var ids map[string]struct{}
	if q.IDs != nil {
		ids = make(map[string]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			ids[id] = struct{}{}
		}
	}

	var tags map[string]struct{}
	if len(q.TagIDs) > 0 {
		tags = make(map[string]struct{}, len(q.TagIDs))
		for _, id := range q.TagIDs {
			tags[id] = struct{}{}
		}
	}

	from, to := q.From, q.To
	return func(b *domain.Blog) bool {
		if ids != nil {
			if _, ok := ids[b.ID]; !ok {
				return false
			}
		}
		if tags != nil && !b.HasAnyTag(tags) {
			return false
		}
		if !from.IsZero() && b.CreatedAt.Before(from) {
			return false
		}
		if !to.IsZero() && b.CreatedAt.After(to) {
			return false
		}
		return true
	}
}

// SortBlogs orders blogs in place.
// Title order is bytewise; ties fall back to newest first, then id.
// Date order ties fall back to id in the same direction.
func SortBlogs(blogs []*domain.Blog, s BlogSort) {
	desc := s.Descending()
	if s.ByTitle() {
		slices.SortStableFunc(blogs, func(a, b *domain.Blog) int {
			c := cmp.Compare(a.Title, b.Title)
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
			if c = b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		return
	}

	slices.SortStableFunc(blogs, func(a, b *domain.Blog) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}
