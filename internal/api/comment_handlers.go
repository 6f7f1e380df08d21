package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-blog/inkwell-server/internal/service"
)

const msgCommentDeleted = "Comment deleted successfully"

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/api/comments/blog/{id}",
		Summary:       "Add comment",
		Description:   "Posts a comment on a blog",
		Tags:          []string{"Comments"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimit(s.commentLimit), s.requireAuth},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/comments/blog/{id}",
		Summary:     "List comments",
		Description: "Returns a blog's comments, newest first",
		Tags:        []string{"Comments"},
		Middlewares: huma.Middlewares{s.optionalAuth},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPut,
		Path:        "/api/comments/{id}",
		Summary:     "Update comment",
		Description: "Changes a comment's text. Only its author may update.",
		Tags:        []string{"Comments"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/comments/{id}",
		Summary:     "Delete comment",
		Description: "Deletes a comment. Only its author may delete.",
		Tags:        []string{"Comments"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleDeleteComment)
}

// === DTOs ===

// CommentRequest is the request body for adding or editing a comment.
type CommentRequest struct {
	Text string `json:"text" required:"false" doc:"Comment text"`
}

// AddCommentInput wraps the add comment request for Huma.
type AddCommentInput struct {
	BlogID string `path:"id" doc:"Blog ID"`
	Body   CommentRequest
}

// ListCommentsInput identifies the blog whose comments are listed.
type ListCommentsInput struct {
	BlogID string `path:"id" doc:"Blog ID"`
}

// UpdateCommentInput wraps the update comment request for Huma.
type UpdateCommentInput struct {
	ID   string `path:"id" doc:"Comment ID"`
	Body CommentRequest
}

// CommentIDInput identifies a comment.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body *service.CommentView
}

// CommentListOutput wraps a list of comments for Huma.
type CommentListOutput struct {
	Body []service.CommentView
}

// === Handlers ===

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Comment.Add(ctx, identityFrom(ctx), input.BlogID, service.CommentRequest{Text: input.Body.Text})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *ListCommentsInput) (*CommentListOutput, error) {
	comments, err := s.services.Comment.ListForBlog(ctx, identityFrom(ctx), input.BlogID)
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: comments}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Comment.Update(ctx, identityFrom(ctx), input.ID, service.CommentRequest{Text: input.Body.Text})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	if err := s.services.Comment.Delete(ctx, identityFrom(ctx), input.ID); err != nil {
		return nil, err
	}
	return message(msgCommentDeleted), nil
}
