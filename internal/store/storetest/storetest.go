// Package storetest holds the behavioral contract every store.Store
// backend must satisfy. Backends call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// Opener returns a fresh, empty store. The store is closed by the suite.
type Opener func(t *testing.T) store.Store

// Run executes the contract suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UserCRUD", testUserCRUD},
		{"UserUniqueness", testUserUniqueness},
		{"TagCRUD", testTagCRUD},
		{"UpsertTagConcurrent", testUpsertTagConcurrent},
		{"DeleteTagPrunesBlogs", testDeleteTagPrunesBlogs},
		{"BlogCRUD", testBlogCRUD},
		{"DeleteBlogCascadesComments", testDeleteBlogCascadesComments},
		{"CommentLifecycle", testCommentLifecycle},
		{"ListBlogsPagination", testListBlogsPagination},
		{"ListBlogsPageBeyondRange", testListBlogsPageBeyondRange},
		{"ListBlogsFilters", testListBlogsFilters},
		{"ListBlogsSort", testListBlogsSort},
		{"SearchIndexerNotified", testSearchIndexerNotified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewUser builds an unsaved user.
func NewUser(username, email string) *domain.User {
	u := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	}
	u.InitTimestamps()
	return u
}

// NewBlog builds an unsaved blog created at the given time.
func NewBlog(authorID, title string, created time.Time, tagIDs ...string) *domain.Blog {
	b := &domain.Blog{
		Record:      domain.Record{ID: id.MustGenerate(id.PrefixBlog), CreatedAt: created, UpdatedAt: created},
		Title:       title,
		Description: "description of " + title,
		AuthorID:    authorID,
		TagIDs:      tagIDs,
	}
	return b
}

// NewComment builds an unsaved comment created at the given time.
func NewComment(blogID, authorID, text string, created time.Time) *domain.Comment {
	return &domain.Comment{
		Record:   domain.Record{ID: id.MustGenerate(id.PrefixComment), CreatedAt: created, UpdatedAt: created},
		BlogID:   blogID,
		AuthorID: authorID,
		Text:     text,
	}
}

func mustUser(t *testing.T, s store.Store) *domain.User {
	t.Helper()
	u := NewUser("author", "author@example.com")
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func testUserCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("Alice", "Alice@Example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)

	byEmail, err := s.GetUserByEmail(ctx, "  ALICE@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	got.Username = "alice2"
	got.Email = "alice2@example.com"
	require.NoError(t, s.UpdateUser(ctx, got))

	_, err = s.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	byEmail, err = s.GetUserByEmail(ctx, "alice2@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice2", byEmail.Username)

	users, err := s.GetUsersByIDs(ctx, []string{u.ID, "user-missing"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Contains(t, users, u.ID)

	_, err = s.GetUser(ctx, "user-missing")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUserUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("alice", "alice@example.com")))

	dupEmail := NewUser("bob", "ALICE@example.com")
	err := s.CreateUser(ctx, dupEmail)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.GetUser(ctx, dupEmail.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound, "rejected user must not be stored")

	err = s.CreateUser(ctx, NewUser("ALICE", "other@example.com"))
	assert.ErrorIs(t, err, store.ErrUsernameExists)

	bob := NewUser("bob", "bob@example.com")
	require.NoError(t, s.CreateUser(ctx, bob))
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, bob), store.ErrEmailExists)
}

func testTagCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	tag := &domain.Tag{Record: domain.Record{ID: id.MustGenerate(id.PrefixTag)}, Name: "go"}
	tag.InitTimestamps()
	require.NoError(t, s.CreateTag(ctx, tag))

	dup := &domain.Tag{Record: domain.Record{ID: id.MustGenerate(id.PrefixTag)}, Name: "go"}
	dup.InitTimestamps()
	assert.ErrorIs(t, s.CreateTag(ctx, dup), store.ErrTagExists)

	byName, err := s.GetTagByName(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, byName.ID)

	other, created, err := s.UpsertTag(ctx, "databases")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.UpsertTag(ctx, "databases")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, other.ID, again.ID)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "databases", tags[0].Name)
	assert.Equal(t, "go", tags[1].Name)

	byIDs, err := s.GetTagsByIDs(ctx, []string{tag.ID, "tag-missing", other.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	tag.Name = "databases"
	assert.ErrorIs(t, s.UpdateTag(ctx, tag), store.ErrTagExists)

	tag.Name = "golang"
	require.NoError(t, s.UpdateTag(ctx, tag))
	_, err = s.GetTagByName(ctx, "go")
	assert.ErrorIs(t, err, store.ErrTagNotFound)
	renamed, err := s.GetTagByName(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, renamed.ID)

	_, err = s.GetTag(ctx, "tag-missing")
	assert.ErrorIs(t, err, store.ErrTagNotFound)
	_, err = s.DeleteTag(ctx, "tag-missing")
	assert.ErrorIs(t, err, store.ErrTagNotFound)
}

func testUpsertTagConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 16

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ids   = make(map[string]struct{})
		nNew  int
		errs  []error
		start = make(chan struct{})
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			tag, created, err := s.UpsertTag(ctx, "ai")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[tag.ID] = struct{}{}
			if created {
				nNew++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, ids, 1, "all resolvers must converge on one tag")
	assert.Equal(t, 1, nNew, "exactly one resolver creates the tag")

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func testDeleteTagPrunesBlogs(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	now := time.Now().UTC()

	doomed, _, err := s.UpsertTag(ctx, "doomed")
	require.NoError(t, err)
	kept, _, err := s.UpsertTag(ctx, "kept")
	require.NoError(t, err)

	b1 := NewBlog(author.ID, "first", now, doomed.ID, kept.ID)
	b2 := NewBlog(author.ID, "second", now, doomed.ID)
	b3 := NewBlog(author.ID, "third", now, kept.ID)
	for _, b := range []*domain.Blog{b1, b2, b3} {
		require.NoError(t, s.CreateBlog(ctx, b))
	}

	pruned, err := s.DeleteTag(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	all, err := s.ListAllBlogs(ctx)
	require.NoError(t, err)
	for _, b := range all {
		assert.NotContains(t, b.TagIDs, doomed.ID, "blog %s still references deleted tag", b.ID)
	}

	got, err := s.GetBlog(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, got.TagIDs)

	_, err = s.GetTag(ctx, doomed.ID)
	assert.ErrorIs(t, err, store.ErrTagNotFound)

	page, err := s.ListBlogs(ctx, store.BlogQuery{TagIDs: []string{doomed.ID}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func testBlogCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	tag, _, err := s.UpsertTag(ctx, "go")
	require.NoError(t, err)

	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	blog := NewBlog(author.ID, "Hello", created, tag.ID, tag.ID)
	require.NoError(t, s.CreateBlog(ctx, blog))

	got, err := s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, []string{tag.ID}, got.TagIDs, "tag set collapses duplicates")
	assert.Empty(t, got.CommentIDs)
	assert.True(t, created.Equal(got.CreatedAt))

	update := &domain.Blog{
		Record:      domain.Record{ID: blog.ID, UpdatedAt: created.Add(time.Hour)},
		Title:       "Hello again",
		Description: "new description",
		AuthorID:    "user-someoneelse",
	}
	require.NoError(t, s.UpdateBlog(ctx, update))

	got, err = s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Title)
	assert.Equal(t, "new description", got.Description)
	assert.Equal(t, author.ID, got.AuthorID, "author is immutable")
	assert.Empty(t, got.TagIDs)
	assert.True(t, created.Equal(got.CreatedAt))

	n, err := s.CountBlogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetBlog(ctx, "blog-missing")
	assert.ErrorIs(t, err, store.ErrBlogNotFound)
	assert.ErrorIs(t, s.UpdateBlog(ctx, &domain.Blog{Record: domain.Record{ID: "blog-missing"}}), store.ErrBlogNotFound)
	assert.ErrorIs(t, s.DeleteBlog(ctx, "blog-missing"), store.ErrBlogNotFound)
}

func testDeleteBlogCascadesComments(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	now := time.Now().UTC()

	doomed := NewBlog(author.ID, "doomed", now)
	survivor := NewBlog(author.ID, "survivor", now)
	require.NoError(t, s.CreateBlog(ctx, doomed))
	require.NoError(t, s.CreateBlog(ctx, survivor))

	var doomedComments []string
	for i := range 3 {
		c := NewComment(doomed.ID, author.ID, fmt.Sprintf("comment %d", i), now)
		require.NoError(t, s.CreateComment(ctx, c))
		doomedComments = append(doomedComments, c.ID)
	}
	keep := NewComment(survivor.ID, author.ID, "stays", now)
	require.NoError(t, s.CreateComment(ctx, keep))

	require.NoError(t, s.DeleteBlog(ctx, doomed.ID))

	for _, cid := range doomedComments {
		_, err := s.GetComment(ctx, cid)
		assert.ErrorIs(t, err, store.ErrCommentNotFound, "comment %s outlived its blog", cid)
	}
	_, err := s.GetComment(ctx, keep.ID)
	assert.NoError(t, err)

	_, err = s.ListCommentsByBlog(ctx, doomed.ID)
	assert.ErrorIs(t, err, store.ErrBlogNotFound)
}

func testCommentLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	blog := NewBlog(author.ID, "commented", base)
	require.NoError(t, s.CreateBlog(ctx, blog))

	first := NewComment(blog.ID, author.ID, "first", base.Add(time.Minute))
	second := NewComment(blog.ID, author.ID, "second", base.Add(2*time.Minute))
	require.NoError(t, s.CreateComment(ctx, first))
	require.NoError(t, s.CreateComment(ctx, second))

	got, err := s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, got.CommentIDs, "backlinks keep append order")

	list, err := s.ListCommentsByBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	edit := &domain.Comment{Record: domain.Record{ID: first.ID}, Text: "edited", BlogID: "blog-other", AuthorID: "user-other"}
	require.NoError(t, s.UpdateComment(ctx, edit))
	stored, err := s.GetComment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Text)
	assert.Equal(t, blog.ID, stored.BlogID, "blog is immutable")
	assert.Equal(t, author.ID, stored.AuthorID, "author is immutable")

	require.NoError(t, s.DeleteComment(ctx, first.ID))
	got, err = s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, got.CommentIDs)

	assert.ErrorIs(t, s.DeleteComment(ctx, first.ID), store.ErrCommentNotFound)

	orphan := NewComment("blog-missing", author.ID, "nowhere", base)
	assert.ErrorIs(t, s.CreateComment(ctx, orphan), store.ErrBlogNotFound)
	_, err = s.GetComment(ctx, orphan.ID)
	assert.ErrorIs(t, err, store.ErrCommentNotFound)
}

func testListBlogsPagination(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, s.CreateBlog(ctx, NewBlog(author.ID, fmt.Sprintf("blog %d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	page, err := s.ListBlogs(ctx, store.BlogQuery{PageParams: store.PageParams{Page: 2, Limit: 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "blog 1", page.Items[0].Title)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasNext())
	assert.True(t, page.HasPrev())

	page, err = s.ListBlogs(ctx, store.BlogQuery{PageParams: store.PageParams{Page: 5, Limit: 1}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)

	page, err = s.ListBlogs(ctx, store.BlogQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, store.DefaultPageLimit, page.Limit)
}

func testListBlogsPageBeyondRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	require.NoError(t, s.CreateBlog(ctx, NewBlog(author.ID, "only blog", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))

	for _, params := range []store.PageParams{
		{Page: 100000000000000000, Limit: 100},
		{Page: math.MaxInt, Limit: 1},
	} {
		var page *store.PaginatedResult[*domain.Blog]
		require.NotPanics(t, func() {
			var err error
			page, err = s.ListBlogs(ctx, store.BlogQuery{PageParams: params})
			require.NoError(t, err)
		})
		assert.Empty(t, page.Items)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, params.Page, page.Page)
		assert.True(t, page.HasPrev())
		assert.False(t, page.HasNext())
	}
}

func testListBlogsFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t1, _, err := s.UpsertTag(ctx, "t1")
	require.NoError(t, err)
	t2, _, err := s.UpsertTag(ctx, "t2")
	require.NoError(t, err)

	early := NewBlog(author.ID, "early", base.AddDate(0, 0, -5), t1.ID)
	middle := NewBlog(author.ID, "middle", base, t2.ID)
	late := NewBlog(author.ID, "late", base.AddDate(0, 0, 5), t1.ID, t2.ID)
	for _, b := range []*domain.Blog{early, middle, late} {
		require.NoError(t, s.CreateBlog(ctx, b))
	}

	titles := func(q store.BlogQuery) []string {
		t.Helper()
		q.Sort = store.SortDateAsc
		page, err := s.ListBlogs(ctx, q)
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, b := range page.Items {
			out = append(out, b.Title)
		}
		assert.Equal(t, len(out), page.Total)
		return out
	}

	assert.Equal(t, []string{"early", "late"}, titles(store.BlogQuery{TagIDs: []string{t1.ID}}))
	assert.Equal(t, []string{"early", "middle", "late"}, titles(store.BlogQuery{TagIDs: []string{t1.ID, t2.ID}}))
	assert.Empty(t, titles(store.BlogQuery{TagIDs: []string{"tag-unknown"}}))

	assert.Equal(t, []string{"middle", "late"}, titles(store.BlogQuery{From: base}))
	assert.Equal(t, []string{"early", "middle"}, titles(store.BlogQuery{To: base}))
	assert.Equal(t, []string{"middle"}, titles(store.BlogQuery{From: base, To: base}))

	assert.Equal(t, []string{"middle", "late"}, titles(store.BlogQuery{IDs: []string{late.ID, middle.ID}}))
	assert.Empty(t, titles(store.BlogQuery{IDs: []string{}}))
	assert.Equal(t, []string{"late"}, titles(store.BlogQuery{IDs: []string{early.ID, late.ID}, TagIDs: []string{t2.ID}}))
}

func testListBlogsSort(t *testing.T, s store.Store) {
	ctx := context.Background()
	author := mustUser(t, s)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateBlog(ctx, NewBlog(author.ID, "Banana", base)))
	require.NoError(t, s.CreateBlog(ctx, NewBlog(author.ID, "Apple", base.Add(time.Hour))))
	require.NoError(t, s.CreateBlog(ctx, NewBlog(author.ID, "Cherry", base.Add(2*time.Hour))))

	titles := func(sort store.BlogSort) []string {
		t.Helper()
		page, err := s.ListBlogs(ctx, store.BlogQuery{Sort: sort})
		require.NoError(t, err)
		out := make([]string, 0, len(page.Items))
		for _, b := range page.Items {
			out = append(out, b.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Cherry", "Apple", "Banana"}, titles(""))
	assert.Equal(t, []string{"Banana", "Apple", "Cherry"}, titles(store.SortDateAsc))
	assert.Equal(t, []string{"Apple", "Banana", "Cherry"}, titles(store.SortTitleAsc))
	assert.Equal(t, []string{"Cherry", "Banana", "Apple"}, titles(store.SortTitleDesc))
}

// recordingIndexer remembers the last indexed state per blog.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]string
	deleted []string
}

func (r *recordingIndexer) IndexBlog(_ context.Context, b *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed[b.ID] = b.Title
	return nil
}

func (r *recordingIndexer) DeleteBlog(_ context.Context, blogID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexed, blogID)
	r.deleted = append(r.deleted, blogID)
	return nil
}

func testSearchIndexerNotified(t *testing.T, s store.Store) {
	ctx := context.Background()
	idx := &recordingIndexer{indexed: make(map[string]string)}
	s.SetSearchIndexer(idx)

	author := mustUser(t, s)
	blog := NewBlog(author.ID, "indexed", time.Now().UTC())
	require.NoError(t, s.CreateBlog(ctx, blog))
	assert.Equal(t, "indexed", idx.indexed[blog.ID])

	blog.Title = "reindexed"
	require.NoError(t, s.UpdateBlog(ctx, blog))
	assert.Equal(t, "reindexed", idx.indexed[blog.ID])

	require.NoError(t, s.DeleteBlog(ctx, blog.ID))
	assert.NotContains(t, idx.indexed, blog.ID)
	assert.Equal(t, []string{blog.ID}, idx.deleted)

	require.NoError(t, s.Ping(ctx))
}
