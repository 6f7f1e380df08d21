package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	"github.com/inkwell-blog/inkwell-server/internal/service"
)

const msgBlogDeleted = "Blog and associated comments deleted successfully"

func (s *Server) registerBlogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBlog",
		Method:        http.MethodPost,
		Path:          "/api/blogs",
		Summary:       "Create blog",
		Description:   "Publishes a blog authored by the caller. Unknown tags are created.",
		Tags:          []string{"Blogs"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleCreateBlog)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBlogs",
		Method:      http.MethodGet,
		Path:        "/api/blogs",
		Summary:     "List blogs",
		Description: "Returns a filtered, sorted page of blogs",
		Tags:        []string{"Blogs"},
		Middlewares: huma.Middlewares{s.optionalAuth},
	}, s.handleListBlogs)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBlog",
		Method:      http.MethodGet,
		Path:        "/api/blogs/{id}",
		Summary:     "Get blog",
		Description: "Returns a blog with its comments",
		Tags:        []string{"Blogs"},
		Middlewares: huma.Middlewares{s.optionalAuth},
	}, s.handleGetBlog)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBlog",
		Method:      http.MethodPut,
		Path:        "/api/blogs/{id}",
		Summary:     "Update blog",
		Description: "Replaces title, description and tags. Only the author may update.",
		Tags:        []string{"Blogs"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleUpdateBlog)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBlog",
		Method:      http.MethodDelete,
		Path:        "/api/blogs/{id}",
		Summary:     "Delete blog",
		Description: "Deletes a blog and its comments. Only the author may delete.",
		Tags:        []string{"Blogs"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleDeleteBlog)
}

// === DTOs ===

// BlogRequest is the request body for creating or replacing a blog.
type BlogRequest struct {
	Title       string    `json:"title" required:"false" doc:"Title, at least 3 characters"`
	Description string    `json:"description" required:"false" doc:"Body text, at least 10 characters"`
	Tags        TagsInput `json:"tags,omitempty" doc:"Tags to attach; omitted means none"`
}

func (r BlogRequest) toService() service.BlogRequest {
	return service.BlogRequest{
		Title:       r.Title,
		Description: r.Description,
		Tags:        domain.TagList(r.Tags),
	}
}

// CreateBlogInput wraps the create blog request for Huma.
type CreateBlogInput struct {
	Body BlogRequest
}

// UpdateBlogInput wraps the update blog request for Huma.
type UpdateBlogInput struct {
	ID   string `path:"id" doc:"Blog ID"`
	Body BlogRequest
}

// BlogIDInput identifies a blog.
type BlogIDInput struct {
	ID string `path:"id" doc:"Blog ID"`
}

// ListBlogsInput contains the listing filters.
type ListBlogsInput struct {
	Search    string `query:"search" doc:"Full-text query over title and description"`
	Tags      string `query:"tags" doc:"Comma-separated tag names; blogs with any of them match"`
	SortBy    string `query:"sortBy" doc:"title, -title, date or -date (default -date)"`
	Page      int    `query:"page" doc:"1-based page number (default 1)"`
	Limit     int    `query:"limit" doc:"Page size, at most 100 (default 10)"`
	StartDate string `query:"startDate" doc:"Earliest creation date (RFC 3339 or YYYY-MM-DD)"`
	EndDate   string `query:"endDate" doc:"Latest creation date (RFC 3339 or YYYY-MM-DD)"`
}

// BlogOutput wraps a blog for Huma.
type BlogOutput struct {
	Body *service.BlogView
}

// BlogDetailOutput wraps a blog with its comments for Huma.
type BlogDetailOutput struct {
	Body *service.BlogDetailView
}

// BlogPageOutput wraps a page of blogs for Huma.
type BlogPageOutput struct {
	Body *service.BlogPage
}

// MessageResponse is the body of a successful delete.
type MessageResponse struct {
	Message string `json:"message" doc:"Outcome description"`
}

// MessageOutput wraps a message for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

// === Handlers ===

func (s *Server) handleCreateBlog(ctx context.Context, input *CreateBlogInput) (*BlogOutput, error) {
	blog, err := s.services.Blog.Create(ctx, identityFrom(ctx), input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &BlogOutput{Body: blog}, nil
}

func (s *Server) handleListBlogs(ctx context.Context, input *ListBlogsInput) (*BlogPageOutput, error) {
	page, err := s.services.Blog.List(ctx, identityFrom(ctx), service.ListBlogsRequest{
		Search:    input.Search,
		Tags:      input.Tags,
		SortBy:    input.SortBy,
		Page:      input.Page,
		Limit:     input.Limit,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		return nil, err
	}
	return &BlogPageOutput{Body: page}, nil
}

func (s *Server) handleGetBlog(ctx context.Context, input *BlogIDInput) (*BlogDetailOutput, error) {
	blog, err := s.services.Blog.Get(ctx, identityFrom(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &BlogDetailOutput{Body: blog}, nil
}

func (s *Server) handleUpdateBlog(ctx context.Context, input *UpdateBlogInput) (*BlogOutput, error) {
	blog, err := s.services.Blog.Update(ctx, identityFrom(ctx), input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &BlogOutput{Body: blog}, nil
}

func (s *Server) handleDeleteBlog(ctx context.Context, input *BlogIDInput) (*MessageOutput, error) {
	if err := s.services.Blog.Delete(ctx, identityFrom(ctx), input.ID); err != nil {
		return nil, err
	}
	return message(msgBlogDeleted), nil
}
