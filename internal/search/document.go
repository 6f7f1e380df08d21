// Package search provides full-text search over blog posts using Bleve.
package search

import "github.com/inkwell-blog/inkwell-server/internal/domain"

// BlogDocument is the indexed projection of a blog.
type BlogDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with the field names of the
// index mapping.
func (d *BlogDocument) ToMap() map[string]any {
	return map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"description": d.Description,
		"created_at":  d.CreatedAt,
	}
}

// BlogToSearchDocument converts a domain Blog to a BlogDocument.
func BlogToSearchDocument(b *domain.Blog) *BlogDocument {
	return &BlogDocument{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UnixMilli(),
	}
}
