package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// countingStore records how often the resolver reaches the store.
type countingStore struct {
	store.Store
	mu      sync.Mutex
	upserts int
}

func (c *countingStore) UpsertTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	c.mu.Lock()
	c.upserts++
	c.mu.Unlock()
	return c.Store.UpsertTag(ctx, name)
}

func TestTagResolver_EmptyInputSkipsStore(t *testing.T) {
	env := setupServices(t)
	cs := &countingStore{Store: env.store}
	r := NewTagResolver(cs, nil)

	for _, in := range []domain.TagList{nil, {}, {" ", ""}, domain.ParseTagList(" , ,")} {
		ids, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Empty(t, ids)
	}
	assert.Zero(t, cs.upserts)
}

func TestTagResolver_CollapsesCase(t *testing.T) {
	env := setupServices(t)

	ids, err := env.resolver.Resolve(context.Background(), domain.ParseTagList("tech, Tech, TECH"))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	tag, err := env.store.GetTag(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "tech", tag.Name)
}

func TestTagResolver_ConcurrentResolveConverges(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	const workers = 12
	results := make([][]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "AI"
			if i%2 == 0 {
				name = "ai"
			}
			ids, err := env.resolver.Resolve(ctx, domain.TagList{name})
			assert.NoError(t, err)
			results[i] = ids
		}(i)
	}
	wg.Wait()

	for _, ids := range results {
		require.Len(t, ids, 1)
		assert.Equal(t, results[0][0], ids[0])
	}

	tags, err := env.store.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagResolver_LookupDoesNotCreate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	existing, _, err := env.store.UpsertTag(ctx, "go")
	require.NoError(t, err)

	ids, err := env.resolver.Lookup(ctx, domain.ParseTagList("GO, rust"))
	require.NoError(t, err)
	assert.Equal(t, []string{existing.ID}, ids)

	_, err = env.store.GetTagByName(ctx, "rust")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTagService_CRUD(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	created, err := env.tags.Create(ctx, alice, TagRequest{Name: "  Golang "})
	require.NoError(t, err)
	assert.Equal(t, "golang", created.Name)

	_, err = env.tags.Create(ctx, alice, TagRequest{Name: "GOLANG"})
	derr := requireCode(t, err, domainerrors.CodeConflict)
	assert.Equal(t, "Tag 'golang' already exists", derr.Message)
	assert.Equal(t, 409, derr.HTTPStatus())

	_, err = env.tags.Create(ctx, alice, TagRequest{Name: "   "})
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = env.tags.Create(ctx, alice, TagRequest{Name: "databases"})
	require.NoError(t, err)

	list, err := env.tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"databases", "golang"}, tagNames(list))

	got, err := env.tags.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	renamed, err := env.tags.Update(ctx, alice, created.ID, TagRequest{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "go", renamed.Name)

	_, err = env.tags.Update(ctx, alice, created.ID, TagRequest{Name: "databases"})
	requireCode(t, err, domainerrors.CodeConflict)

	_, err = env.tags.Get(ctx, id.MustGenerate(id.PrefixTag))
	requireCode(t, err, domainerrors.CodeNotFound)

	_, err = env.tags.Create(ctx, nil, TagRequest{Name: "anon"})
	requireCode(t, err, domainerrors.CodeUnauthorized)
}

func TestTagService_DeletePrunesBlogs(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	first := env.createBlog(t, alice, "First tagged", "doomed", "keeper")
	second := env.createBlog(t, alice, "Second tagged", "doomed")

	doomed, err := env.store.GetTagByName(ctx, "doomed")
	require.NoError(t, err)

	require.NoError(t, env.tags.Delete(ctx, alice, doomed.ID))

	for _, blogID := range []string{first.ID, second.ID} {
		b, err := env.store.GetBlog(ctx, blogID)
		require.NoError(t, err)
		assert.NotContains(t, b.TagIDs, doomed.ID)
	}

	detail, err := env.blogs.Get(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"keeper"}, tagNames(detail.Tags))

	err = env.tags.Delete(ctx, alice, doomed.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}
