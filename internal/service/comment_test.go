package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store/storetest"
)

func TestCommentService_Add(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	blog := env.createBlog(t, alice, "Commented post")

	comment, err := env.comments.Add(ctx, bob, blog.ID, CommentRequest{Text: "  Great read!  "})
	require.NoError(t, err)

	assert.True(t, id.Valid(id.PrefixComment, comment.ID))
	assert.Equal(t, "Great read!", comment.Text)
	assert.Equal(t, blog.ID, comment.BlogID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	stored, err := env.store.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{comment.ID}, stored.CommentIDs)
}

func TestCommentService_Add_Errors(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	blog := env.createBlog(t, alice, "Commented post")

	_, err := env.comments.Add(ctx, alice, id.MustGenerate(id.PrefixBlog), CommentRequest{Text: "hello"})
	derr := requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "Blog not found", derr.Message)

	_, err = env.comments.Add(ctx, alice, "blog-123", CommentRequest{Text: "hello"})
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = env.comments.Add(ctx, alice, blog.ID, CommentRequest{Text: "   "})
	derr = requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "text is required", derr.Message)

	_, err = env.comments.Add(ctx, nil, blog.ID, CommentRequest{Text: "anonymous"})
	requireCode(t, err, domainerrors.CodeUnauthorized)
}

func TestCommentService_ListForBlog_NewestFirst(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	blog := env.createBlog(t, alice, "Busy post")

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, env.store.CreateComment(ctx, storetest.NewComment(blog.ID, alice.ID, text, base.Add(time.Duration(i)*time.Minute))))
	}

	comments, err := env.comments.ListForBlog(ctx, nil, blog.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "newest", comments[0].Text)
	assert.Equal(t, "oldest", comments[2].Text)
	assert.Equal(t, "alice", comments[0].Author.Username)

	_, err = env.comments.ListForBlog(ctx, nil, id.MustGenerate(id.PrefixBlog))
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestCommentService_UpdateAndDelete_Ownership(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	blog := env.createBlog(t, alice, "Commented post")

	comment, err := env.comments.Add(ctx, bob, blog.ID, CommentRequest{Text: "original"})
	require.NoError(t, err)

	// The blog owner does not own other people's comments.
	_, err = env.comments.Update(ctx, alice, comment.ID, CommentRequest{Text: "edited by alice"})
	requireCode(t, err, domainerrors.CodeForbidden)
	err = env.comments.Delete(ctx, alice, comment.ID)
	requireCode(t, err, domainerrors.CodeForbidden)

	stored, err := env.store.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Text)

	updated, err := env.comments.Update(ctx, bob, comment.ID, CommentRequest{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.True(t, *updated.IsOwner)

	require.NoError(t, env.comments.Delete(ctx, bob, comment.ID))

	b, err := env.store.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Empty(t, b.CommentIDs)

	err = env.comments.Delete(ctx, bob, comment.ID)
	derr := requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "Comment not found", derr.Message)
}
