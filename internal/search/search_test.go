package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func testBlog(id, title, description string) *domain.Blog {
	b := &domain.Blog{Title: title, Description: description}
	b.ID = id
	b.CreatedAt = time.Now().UTC()
	return b
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBlog(ctx, testBlog("blog-1", "Persisted", "kept across restarts")))
	require.NoError(t, index.Close())

	index, err = NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_MatchBlogIDs(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBlogs(ctx, []*domain.Blog{
		testBlog("blog-ai", "The Future of AI", "Artificial intelligence is transforming industries"),
		testBlog("blog-health", "Healthy Living Tips", "Simple habits for a healthier life"),
		testBlog("blog-go", "Concurrency in Go", "Goroutines and channels explained"),
	}))

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title term", "future", []string{"blog-ai"}},
		{"description term", "goroutines", []string{"blog-go"}},
		{"any term matches", "future habits", []string{"blog-ai", "blog-health"}},
		{"case insensitive", "HEALTHY", []string{"blog-health"}},
		{"stemmed", "transform", []string{"blog-ai"}},
		{"no match", "gardening", []string{}},
		{"blank", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := index.MatchBlogIDs(ctx, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestSearchIndex_UpdateAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	blog := testBlog("blog-1", "Original title", "first version of the text")
	require.NoError(t, index.IndexBlog(ctx, blog))

	blog.Title = "Renamed headline"
	require.NoError(t, index.IndexBlog(ctx, blog))

	ids, err := index.MatchBlogIDs(ctx, "original")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.MatchBlogIDs(ctx, "headline")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog-1"}, ids)

	require.NoError(t, index.DeleteBlog(ctx, "blog-1"))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBlog(ctx, testBlog("blog-1", "Something", "to forget")))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_InMemory(t *testing.T) {
	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)
	defer index.Close()

	ctx := context.Background()
	require.NoError(t, index.IndexBlog(ctx, testBlog("blog-1", "Memory only", "never written to disk")))

	ids, err := index.MatchBlogIDs(ctx, "memory")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog-1"}, ids)

	require.NoError(t, index.Rebuild())
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
