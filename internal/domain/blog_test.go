package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlog_IsAuthoredBy(t *testing.T) {
	b := &Blog{AuthorID: "user-1"}
	assert.True(t, b.IsAuthoredBy("user-1"))
	assert.False(t, b.IsAuthoredBy("user-2"))

	orphan := &Blog{}
	assert.False(t, orphan.IsAuthoredBy(""), "a blog without an author is owned by nobody")
}

func TestBlog_SetTags(t *testing.T) {
	b := &Blog{}
	b.SetTags([]string{"tag-a", "tag-b", "tag-a"})

	assert.Equal(t, []string{"tag-a", "tag-b"}, b.TagIDs)
	assert.True(t, b.HasTag("tag-b"))
	assert.True(t, b.HasAnyTag(map[string]struct{}{"tag-b": {}, "tag-z": {}}))
	assert.False(t, b.HasAnyTag(map[string]struct{}{"tag-z": {}}))
}

func TestBlog_RemoveTag(t *testing.T) {
	b := &Blog{TagIDs: []string{"tag-a", "tag-b"}}

	assert.True(t, b.RemoveTag("tag-a"))
	assert.False(t, b.RemoveTag("tag-a"))
	assert.Equal(t, []string{"tag-b"}, b.TagIDs)
}

func TestBlog_Comments(t *testing.T) {
	b := &Blog{}
	b.AppendComment("comment-1")
	b.AppendComment("comment-2")
	b.AppendComment("comment-3")

	assert.Equal(t, []string{"comment-1", "comment-2", "comment-3"}, b.CommentIDs)

	assert.True(t, b.RemoveComment("comment-2"))
	assert.False(t, b.RemoveComment("comment-9"))
	assert.Equal(t, []string{"comment-1", "comment-3"}, b.CommentIDs)
}

func TestComment_IsAuthoredBy(t *testing.T) {
	c := &Comment{AuthorID: "user-1"}
	assert.True(t, c.IsAuthoredBy("user-1"))
	assert.False(t, c.IsAuthoredBy("user-2"))
}
