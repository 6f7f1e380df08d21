package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

// CommentService handles comments on blogs.
type CommentService struct {
	store     store.Store
	validator *validation.Validator
	views     viewLoader
	logger    *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store store.Store, validator *validation.Validator, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:     store,
		validator: validator,
		views:     viewLoader{store: store},
		logger:    logger,
	}
}

// CommentRequest is the body of comment create and update.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// Add posts a comment by identity on a blog.
func (s *CommentService) Add(ctx context.Context, identity *Identity, blogID string, req CommentRequest) (*CommentView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkID(id.PrefixBlog, blogID); err != nil {
		return nil, err
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, fmt.Errorf("generate comment ID: %w", err)
	}

	comment := &domain.Comment{
		Record:   domain.Record{ID: commentID},
		BlogID:   blogID,
		AuthorID: identity.ID,
		Text:     req.Text,
	}
	comment.InitTimestamps()

	// The store checks the blog and appends the comment in one transaction.
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, notFound(err, "Blog not found")
	}

	s.logger.Info("comment added", "comment_id", comment.ID, "blog_id", blogID, "user_id", identity.ID)
	return s.views.comment(ctx, comment, identity)
}

// ListForBlog returns the blog's comments, newest first.
func (s *CommentService) ListForBlog(ctx context.Context, viewer *Identity, blogID string) ([]CommentView, error) {
	if err := checkID(id.PrefixBlog, blogID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListCommentsByBlog(ctx, blogID)
	if err != nil {
		return nil, notFound(err, "Blog not found")
	}
	return s.views.comments(ctx, comments, viewer)
}

// Update changes the text of a comment written by identity.
func (s *CommentService) Update(ctx context.Context, identity *Identity, commentID string, req CommentRequest) (*CommentView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkID(id.PrefixComment, commentID); err != nil {
		return nil, err
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	comment, err := s.ownedComment(ctx, identity, commentID, "update")
	if err != nil {
		return nil, err
	}

	comment.Text = req.Text
	comment.Touch()
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, notFound(err, "Comment not found")
	}

	return s.views.comment(ctx, comment, identity)
}

// Delete unlinks a comment written by identity from its blog and deletes it.
func (s *CommentService) Delete(ctx context.Context, identity *Identity, commentID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if err := checkID(id.PrefixComment, commentID); err != nil {
		return err
	}

	comment, err := s.ownedComment(ctx, identity, commentID, "delete")
	if err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		return notFound(err, "Comment not found")
	}

	s.logger.Info("comment deleted", "comment_id", comment.ID, "blog_id", comment.BlogID, "user_id", identity.ID)
	return nil
}

func (s *CommentService) ownedComment(ctx context.Context, identity *Identity, commentID, action string) (*domain.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "Comment not found")
	}
	if !comment.IsAuthoredBy(identity.ID) {
		return nil, domainerrors.Forbidden("You are not authorized to " + action + " this comment")
	}
	return comment, nil
}
