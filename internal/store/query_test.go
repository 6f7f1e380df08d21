package store

import (
	"testing"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogAt(id, title string, created time.Time, tags ...string) *domain.Blog {
	b := &domain.Blog{Title: title, TagIDs: tags}
	b.ID = id
	b.CreatedAt = created
	b.UpdatedAt = created
	return b
}

func ids(blogs []*domain.Blog) []string {
	out := make([]string, len(blogs))
	for i, b := range blogs {
		out[i] = b.ID
	}
	return out
}

func TestParseBlogSort(t *testing.T) {
	tests := []struct {
		in   string
		want BlogSort
		ok   bool
	}{
		{"", SortDateDesc, true},
		{"date", SortDateAsc, true},
		{"-date", SortDateDesc, true},
		{"title", SortTitleAsc, true},
		{"-title", SortTitleDesc, true},
		{"popularity", "", false},
		{"Title", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseBlogSort(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortBlogs(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newBlogs := func() []*domain.Blog {
		return []*domain.Blog{
			blogAt("b1", "Banana", base),
			blogAt("b2", "Apple", base.Add(time.Hour)),
			blogAt("b3", "Cherry", base.Add(2*time.Hour)),
			blogAt("b4", "Apple", base.Add(3*time.Hour)),
		}
	}

	t.Run("default newest first", func(t *testing.T) {
		blogs := newBlogs()
		SortBlogs(blogs, DefaultBlogSort)
		assert.Equal(t, []string{"b4", "b3", "b2", "b1"}, ids(blogs))
	})

	t.Run("date ascending", func(t *testing.T) {
		blogs := newBlogs()
		SortBlogs(blogs, SortDateAsc)
		assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, ids(blogs))
	})

	t.Run("title ascending ties newest first", func(t *testing.T) {
		blogs := newBlogs()
		SortBlogs(blogs, SortTitleAsc)
		assert.Equal(t, []string{"b4", "b2", "b1", "b3"}, ids(blogs))
	})

	t.Run("title descending", func(t *testing.T) {
		blogs := newBlogs()
		SortBlogs(blogs, SortTitleDesc)
		assert.Equal(t, []string{"b3", "b1", "b4", "b2"}, ids(blogs))
	})
}

func TestBlogQuery_Filter(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	blogs := []*domain.Blog{
		blogAt("b1", "one", base.AddDate(0, 0, -2), "t1"),
		blogAt("b2", "two", base, "t2"),
		blogAt("b3", "three", base.AddDate(0, 0, 2), "t1", "t3"),
	}

	apply := func(q BlogQuery) []string {
		keep := q.Filter()
		var out []string
		for _, b := range blogs {
			if keep(b) {
				out = append(out, b.ID)
			}
		}
		return out
	}

	assert.Equal(t, []string{"b1", "b2", "b3"}, apply(BlogQuery{}))
	assert.Equal(t, []string{"b1", "b3"}, apply(BlogQuery{TagIDs: []string{"t1"}}))
	assert.Equal(t, []string{"b2", "b3"}, apply(BlogQuery{TagIDs: []string{"t2", "t3"}}))
	assert.Equal(t, []string{"b2"}, apply(BlogQuery{IDs: []string{"b2"}}))
	assert.Empty(t, apply(BlogQuery{IDs: []string{}}))

	// Bounds are inclusive.
	assert.Equal(t, []string{"b2", "b3"}, apply(BlogQuery{From: base}))
	assert.Equal(t, []string{"b1", "b2"}, apply(BlogQuery{To: base}))
	assert.Equal(t, []string{"b2"}, apply(BlogQuery{From: base, To: base}))
}

func TestBlogQuery_Normalize(t *testing.T) {
	q := BlogQuery{}
	q.Normalize()

	require.Equal(t, DefaultBlogSort, q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageLimit, q.Limit)
	assert.False(t, q.MatchesNothing())

	q = BlogQuery{IDs: []string{}}
	assert.True(t, q.MatchesNothing())
}
