package domain

// Comment belongs to exactly one blog and cannot outlive it.
type Comment struct {
	Record
	BlogID   string `json:"blog_id"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

// IsAuthoredBy reports whether userID wrote the comment.
func (c *Comment) IsAuthoredBy(userID string) bool {
	return c.AuthorID != "" && c.AuthorID == userID
}
