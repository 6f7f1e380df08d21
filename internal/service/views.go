package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/store"
)

// UserView is the user summary returned by the account endpoints.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserView(u *domain.User) *UserView {
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AuthorView is the public projection of a blog or comment author.
type AuthorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TagView is a tag as returned on the wire.
type TagView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTagView(t *domain.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

// CommentView is a comment with its author expanded.
// IsOwner is only present for authenticated viewers.
type CommentView struct {
	ID        string      `json:"id"`
	BlogID    string      `json:"blogId"`
	Author    *AuthorView `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	IsOwner   *bool       `json:"isOwner,omitempty"`
}

// BlogView is a blog with author and tags expanded.
type BlogView struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Author       *AuthorView `json:"author"`
	Tags         []TagView   `json:"tags"`
	CommentCount int         `json:"commentCount"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	IsOwner      *bool       `json:"isOwner,omitempty"`
}

// BlogDetailView is a single blog with its comments in the order they
// were added.
type BlogDetailView struct {
	BlogView
	Comments []CommentView `json:"comments"`
}

// Pagination describes where a page sits in the filtered result set.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// BlogPage is one page of a blog listing.
type BlogPage struct {
	Blogs      []*BlogView `json:"blogs"`
	Pagination Pagination  `json:"pagination"`
}

// viewLoader batch-loads the records referenced by blogs and comments.
type viewLoader struct {
	store store.Store
}

func (l viewLoader) authors(ctx context.Context, ids []string) (map[string]*AuthorView, error) {
	slices.Sort(ids)
	ids = slices.Compact(ids)

	users, err := l.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	out := make(map[string]*AuthorView, len(users))
	for id, u := range users {
		out[id] = &AuthorView{ID: u.ID, Username: u.Username}
	}
	return out, nil
}

func (l viewLoader) tags(ctx context.Context, ids []string) (map[string]TagView, error) {
	slices.Sort(ids)
	ids = slices.Compact(ids)

	tags, err := l.store.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}

	out := make(map[string]TagView, len(tags))
	for _, t := range tags {
		out[t.ID] = newTagView(t)
	}
	return out, nil
}

// blogs expands author and tags for every blog with one read per kind.
func (l viewLoader) blogs(ctx context.Context, blogs []*domain.Blog, viewer *Identity) ([]*BlogView, error) {
	var authorIDs, tagIDs []string
	for _, b := range blogs {
		authorIDs = append(authorIDs, b.AuthorID)
		tagIDs = append(tagIDs, b.TagIDs...)
	}

	authors, err := l.authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	tags, err := l.tags(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*BlogView, 0, len(blogs))
	for _, b := range blogs {
		v := &BlogView{
			ID:           b.ID,
			Title:        b.Title,
			Description:  b.Description,
			Author:       authors[b.AuthorID],
			Tags:         make([]TagView, 0, len(b.TagIDs)),
			CommentCount: len(b.CommentIDs),
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
			IsOwner:      ownerFlag(viewer, b.AuthorID),
		}
		for _, tagID := range b.TagIDs {
			if t, ok := tags[tagID]; ok {
				v.Tags = append(v.Tags, t)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func (l viewLoader) blog(ctx context.Context, b *domain.Blog, viewer *Identity) (*BlogView, error) {
	views, err := l.blogs(ctx, []*domain.Blog{b}, viewer)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (l viewLoader) comments(ctx context.Context, comments []*domain.Comment, viewer *Identity) ([]CommentView, error) {
	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}

	authors, err := l.authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{
			ID:        c.ID,
			BlogID:    c.BlogID,
			Author:    authors[c.AuthorID],
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			IsOwner:   ownerFlag(viewer, c.AuthorID),
		})
	}
	return views, nil
}

func (l viewLoader) comment(ctx context.Context, c *domain.Comment, viewer *Identity) (*CommentView, error) {
	views, err := l.comments(ctx, []*domain.Comment{c}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
