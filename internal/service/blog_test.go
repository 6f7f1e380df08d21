package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store/storetest"
)

func blogTitles(page *BlogPage) []string {
	titles := make([]string, 0, len(page.Blogs))
	for _, b := range page.Blogs {
		titles = append(titles, b.Title)
	}
	return titles
}

func TestBlogService_Create(t *testing.T) {
	env := setupServices(t)
	alice := env.register(t, "alice")

	blog, err := env.blogs.Create(context.Background(), alice, BlogRequest{
		Title:       "  The Future of AI ",
		Description: "Exploring the latest developments in artificial intelligence.",
		Tags:        domain.TagList{"tech", "Tech", " TECH ", "AI"},
	})
	require.NoError(t, err)

	assert.True(t, id.Valid(id.PrefixBlog, blog.ID))
	assert.Equal(t, "The Future of AI", blog.Title)
	require.NotNil(t, blog.Author)
	assert.Equal(t, alice.ID, blog.Author.ID)
	assert.Equal(t, "alice", blog.Author.Username)
	assert.ElementsMatch(t, []string{"tech", "ai"}, tagNames(blog.Tags))
	require.NotNil(t, blog.IsOwner)
	assert.True(t, *blog.IsOwner)

	tags, err := env.store.ListTags(context.Background())
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestBlogService_Create_Validation(t *testing.T) {
	env := setupServices(t)
	alice := env.register(t, "alice")

	_, err := env.blogs.Create(context.Background(), alice, BlogRequest{Title: "AI", Description: "Long enough description"})
	derr := requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "title must be at least 3 characters long", derr.Message)

	_, err = env.blogs.Create(context.Background(), alice, BlogRequest{Title: "Valid title", Description: "   short   "})
	derr = requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "description must be at least 10 characters long", derr.Message)

	_, err = env.blogs.Create(context.Background(), nil, BlogRequest{Title: "Valid title", Description: "Long enough description"})
	requireCode(t, err, domainerrors.CodeUnauthorized)

	count, err := env.store.CountBlogs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBlogService_Get(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	blog := env.createBlog(t, alice, "Healthy Living Tips", "lifestyle")

	_, err := env.comments.Add(ctx, bob, blog.ID, CommentRequest{Text: "first"})
	require.NoError(t, err)
	_, err = env.comments.Add(ctx, alice, blog.ID, CommentRequest{Text: "second"})
	require.NoError(t, err)

	detail, err := env.blogs.Get(ctx, nil, blog.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.IsOwner)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "first", detail.Comments[0].Text)
	assert.Equal(t, "bob", detail.Comments[0].Author.Username)
	assert.Equal(t, "second", detail.Comments[1].Text)
	assert.Equal(t, 2, detail.CommentCount)
	assert.Nil(t, detail.Comments[0].IsOwner)

	asBob, err := env.blogs.Get(ctx, bob, blog.ID)
	require.NoError(t, err)
	require.NotNil(t, asBob.IsOwner)
	assert.False(t, *asBob.IsOwner)
	assert.True(t, *asBob.Comments[0].IsOwner)
	assert.False(t, *asBob.Comments[1].IsOwner)
}

func TestBlogService_Get_Errors(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.blogs.Get(ctx, nil, "not-an-id")
	derr := requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "Invalid id: not-an-id", derr.Message)

	_, err = env.blogs.Get(ctx, nil, id.MustGenerate(id.PrefixBlog))
	derr = requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "Blog not found", derr.Message)
}

func TestBlogService_Update(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	blog := env.createBlog(t, alice, "Original title", "go", "databases")

	updated, err := env.blogs.Update(ctx, alice, blog.ID, BlogRequest{
		Title:       "Updated title",
		Description: "An updated description for the post.",
		Tags:        domain.ParseTagList("Go, testing"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated title", updated.Title)
	assert.ElementsMatch(t, []string{"go", "testing"}, tagNames(updated.Tags))
	assert.True(t, blog.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(blog.UpdatedAt))

	// Absent tags replace the set with nothing.
	cleared, err := env.blogs.Update(ctx, alice, blog.ID, BlogRequest{
		Title:       "Updated title",
		Description: "An updated description for the post.",
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
}

func TestBlogService_Update_NotOwner(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	blog := env.createBlog(t, alice, "Alice's post", "mine")

	_, err := env.blogs.Update(ctx, mallory, blog.ID, BlogRequest{
		Title:       "Hijacked",
		Description: "Mallory was here and changed this.",
		Tags:        domain.TagList{"stolen"},
	})
	derr := requireCode(t, err, domainerrors.CodeForbidden)
	assert.Equal(t, 403, derr.HTTPStatus())

	unchanged, err := env.blogs.Get(ctx, nil, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's post", unchanged.Title)
	assert.Equal(t, []string{"mine"}, tagNames(unchanged.Tags))

	// The forbidden request created no tags.
	_, err = env.store.GetTagByName(ctx, "stolen")
	assert.Error(t, err)
}

func TestBlogService_Update_MissingAuthorIsForbidden(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	orphan := storetest.NewBlog("", "Orphaned post", time.Now())
	require.NoError(t, env.store.CreateBlog(ctx, orphan))

	_, err := env.blogs.Update(ctx, alice, orphan.ID, BlogRequest{Title: "Claimed", Description: "Trying to claim an orphan."})
	requireCode(t, err, domainerrors.CodeForbidden)

	err = env.blogs.Delete(ctx, alice, orphan.ID)
	requireCode(t, err, domainerrors.CodeForbidden)
}

func TestBlogService_Delete(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	blog := env.createBlog(t, alice, "Short lived")

	c1, err := env.comments.Add(ctx, bob, blog.ID, CommentRequest{Text: "nice"})
	require.NoError(t, err)
	c2, err := env.comments.Add(ctx, alice, blog.ID, CommentRequest{Text: "thanks"})
	require.NoError(t, err)

	err = env.blogs.Delete(ctx, bob, blog.ID)
	requireCode(t, err, domainerrors.CodeForbidden)

	require.NoError(t, env.blogs.Delete(ctx, alice, blog.ID))

	_, err = env.blogs.Get(ctx, nil, blog.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
	for _, c := range []*CommentView{c1, c2} {
		_, err := env.store.GetComment(ctx, c.ID)
		assert.Error(t, err, "comment %s outlived its blog", c.ID)
	}

	err = env.blogs.Delete(ctx, alice, blog.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestBlogService_List_Pagination(t *testing.T) {
	env := setupServices(t)
	alice := env.register(t, "alice")
	for _, title := range []string{"First post", "Second post", "Third post"} {
		env.createBlog(t, alice, title)
	}

	page, err := env.blogs.List(context.Background(), nil, ListBlogsRequest{Page: 2, Limit: 1})
	require.NoError(t, err)

	assert.Len(t, page.Blogs, 1)
	assert.Equal(t, Pagination{Total: 3, Page: 2, Limit: 1, TotalPages: 3, HasNextPage: true, HasPrevPage: true}, page.Pagination)

	defaults, err := env.blogs.List(context.Background(), nil, ListBlogsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Pagination.Page)
	assert.Equal(t, 10, defaults.Pagination.Limit)
	assert.False(t, defaults.Pagination.HasNextPage)
	assert.False(t, defaults.Pagination.HasPrevPage)

	_, err = env.blogs.List(context.Background(), nil, ListBlogsRequest{Limit: 101})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestBlogService_List_PageBeyondRange(t *testing.T) {
	env := setupServices(t)
	alice := env.register(t, "alice")
	env.createBlog(t, alice, "Lonely post")

	var page *BlogPage
	require.NotPanics(t, func() {
		var err error
		page, err = env.blogs.List(context.Background(), nil, ListBlogsRequest{Page: 100000000000000000, Limit: 100})
		require.NoError(t, err)
	})

	assert.Empty(t, page.Blogs)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, 100000000000000000, page.Pagination.Page)
	assert.True(t, page.Pagination.HasPrevPage)
	assert.False(t, page.Pagination.HasNextPage)
}

func TestBlogService_List_Sort(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Banana", "apple", "Cherry"} {
		require.NoError(t, env.store.CreateBlog(ctx, storetest.NewBlog(alice.ID, title, base.Add(time.Duration(i)*time.Hour))))
	}

	newest, err := env.blogs.List(ctx, nil, ListBlogsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cherry", "apple", "Banana"}, blogTitles(newest))

	oldest, err := env.blogs.List(ctx, nil, ListBlogsRequest{SortBy: "date"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "apple", "Cherry"}, blogTitles(oldest))

	byTitle, err := env.blogs.List(ctx, nil, ListBlogsRequest{SortBy: "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "Cherry", "apple"}, blogTitles(byTitle))

	_, err = env.blogs.List(ctx, nil, ListBlogsRequest{SortBy: "popularity"})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestBlogService_List_Filters(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	jan := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

	tech, _, err := env.store.UpsertTag(ctx, "tech")
	require.NoError(t, err)
	life, _, err := env.store.UpsertTag(ctx, "lifestyle")
	require.NoError(t, err)

	aiBlog := storetest.NewBlog(alice.ID, "The Future of AI", jan, tech.ID)
	aiBlog.Description = "Neural networks are reshaping software."
	healthBlog := storetest.NewBlog(alice.ID, "Healthy Living Tips", feb, life.ID)
	healthBlog.Description = "Sleep, exercise and a balanced diet."
	require.NoError(t, env.store.CreateBlog(ctx, aiBlog))
	require.NoError(t, env.store.CreateBlog(ctx, healthBlog))

	tests := []struct {
		name string
		req  ListBlogsRequest
		want []string
	}{
		{"tag", ListBlogsRequest{Tags: "TECH"}, []string{"The Future of AI"}},
		{"any of tags", ListBlogsRequest{Tags: "tech, lifestyle"}, []string{"Healthy Living Tips", "The Future of AI"}},
		{"unknown tag", ListBlogsRequest{Tags: "cooking"}, []string{}},
		{"search title", ListBlogsRequest{Search: "future"}, []string{"The Future of AI"}},
		{"search description", ListBlogsRequest{Search: "exercise"}, []string{"Healthy Living Tips"}},
		{"search miss", ListBlogsRequest{Search: "quantum"}, []string{}},
		{"start date", ListBlogsRequest{StartDate: "2024-02-01"}, []string{"Healthy Living Tips"}},
		{"end date whole day", ListBlogsRequest{EndDate: "2024-01-15"}, []string{"The Future of AI"}},
		{"rfc3339 range", ListBlogsRequest{StartDate: "2024-01-01T00:00:00Z", EndDate: "2024-01-31T23:59:59Z"}, []string{"The Future of AI"}},
		{"combined", ListBlogsRequest{Tags: "tech", Search: "healthy"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.blogs.List(ctx, nil, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, blogTitles(page))
			assert.Equal(t, len(tt.want), page.Pagination.Total)
		})
	}

	_, err = env.blogs.List(ctx, nil, ListBlogsRequest{StartDate: "last tuesday"})
	derr := requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "startDate must be a valid date", derr.Message)
}

func TestBlogService_List_IsOwner(t *testing.T) {
	env := setupServices(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	env.createBlog(t, alice, "Alice writes")
	env.createBlog(t, bob, "Bob writes")

	page, err := env.blogs.List(context.Background(), alice, ListBlogsRequest{SortBy: "title"})
	require.NoError(t, err)
	require.Len(t, page.Blogs, 2)
	assert.True(t, *page.Blogs[0].IsOwner)
	assert.False(t, *page.Blogs[1].IsOwner)
}

func TestInListOrder(t *testing.T) {
	c := func(id string) *domain.Comment { return &domain.Comment{Record: domain.Record{ID: id}} }
	got := inListOrder([]*domain.Comment{c("c3"), c("x"), c("c1"), c("c2")}, []string{"c1", "c2", "c3", "gone"})

	ids := make([]string, 0, len(got))
	for _, cm := range got {
		ids = append(ids, cm.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "x"}, ids)
}
