// Package store defines the persistence contract for Inkwell.
//
// Two backends implement Store: kv (Badger, the default) and sqlite.
// Every multi-entity mutation (blog delete with its comments, comment
// create/delete with the blog backlink, tag delete with the prune from
// blogs, tag upsert) runs inside a single backend transaction.
package store

import (
	"context"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
)

// Store is the persistence interface used by the service layer.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	// UpsertTag returns the tag with the given canonical name, creating it
	// if absent. Concurrent callers with the same name get the same tag.
	UpsertTag(ctx context.Context, name string) (tag *domain.Tag, created bool, err error)
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	// DeleteTag removes the tag from every blog and deletes it.
	// Returns the number of blogs that referenced it.
	DeleteTag(ctx context.Context, id string) (int, error)

	// Blogs
	CreateBlog(ctx context.Context, blog *domain.Blog) error
	GetBlog(ctx context.Context, id string) (*domain.Blog, error)
	// UpdateBlog persists title, description and tags. Author and comment
	// list are taken from the stored record.
	UpdateBlog(ctx context.Context, blog *domain.Blog) error
	// DeleteBlog deletes the blog and all of its comments.
	DeleteBlog(ctx context.Context, id string) error
	ListBlogs(ctx context.Context, q BlogQuery) (*PaginatedResult[*domain.Blog], error)
	ListAllBlogs(ctx context.Context) ([]*domain.Blog, error)
	CountBlogs(ctx context.Context) (int, error)

	// Comments
	// CreateComment stores the comment and appends it to the blog's list.
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	// UpdateComment persists the comment text.
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	// DeleteComment unlinks the comment from its blog and deletes it.
	DeleteComment(ctx context.Context, id string) error
	ListCommentsByBlog(ctx context.Context, blogID string) ([]*domain.Comment, error)
}
