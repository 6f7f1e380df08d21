package domain

import "slices"

// Blog is a post owned by exactly one author.
// TagIDs is a set; CommentIDs keeps the order comments were added.
type Blog struct {
	Record
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AuthorID    string   `json:"author_id"`
	TagIDs      []string `json:"tag_ids"`
	CommentIDs  []string `json:"comment_ids"`
}

// IsAuthoredBy reports whether userID owns the blog.
// A blog without a recorded author is owned by nobody.
func (b *Blog) IsAuthoredBy(userID string) bool {
	return b.AuthorID != "" && b.AuthorID == userID
}

// SetTags replaces the tag set, collapsing duplicates.
func (b *Blog) SetTags(tagIDs []string) {
	out := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	b.TagIDs = out
}

// HasTag reports whether the blog references tagID.
func (b *Blog) HasTag(tagID string) bool {
	return slices.Contains(b.TagIDs, tagID)
}

// HasAnyTag reports whether the blog references at least one of tagIDs.
func (b *Blog) HasAnyTag(tagIDs map[string]struct{}) bool {
	for _, id := range b.TagIDs {
		if _, ok := tagIDs[id]; ok {
			return true
		}
	}
	return false
}

// RemoveTag drops tagID from the tag set. Returns false if it was absent.
func (b *Blog) RemoveTag(tagID string) bool {
	n := len(b.TagIDs)
	b.TagIDs = slices.DeleteFunc(b.TagIDs, func(id string) bool { return id == tagID })
	return len(b.TagIDs) != n
}

// AppendComment records a new comment at the end of the comment list.
func (b *Blog) AppendComment(commentID string) {
	b.CommentIDs = append(b.CommentIDs, commentID)
}

// RemoveComment unlinks commentID. Returns false if it was absent.
func (b *Blog) RemoveComment(commentID string) bool {
	n := len(b.CommentIDs)
	b.CommentIDs = slices.DeleteFunc(b.CommentIDs, func(id string) bool { return id == commentID })
	return len(b.CommentIDs) != n
}
