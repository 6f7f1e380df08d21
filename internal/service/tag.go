package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

// TagService manages the global tag list.
// Tags have no owner; any authenticated user may change them.
type TagService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{store: store, validator: validator, logger: logger}
}

// TagRequest names a tag. The name is canonicalized before use.
type TagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// Create adds a tag. Fails with Conflict if the canonical name exists.
func (s *TagService) Create(ctx context.Context, identity *Identity, req TagRequest) (*TagView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	req.Name = domain.NormalizeTagName(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}
	tag := &domain.Tag{Record: domain.Record{ID: tagID}, Name: req.Name}
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, tagConflict(err, req.Name)
	}

	s.logger.Info("tag created", "tag_id", tag.ID, "name", tag.Name, "user_id", identity.ID)
	view := newTagView(tag)
	return &view, nil
}

// List returns every tag ordered by name.
func (s *TagService) List(ctx context.Context) ([]TagView, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	views := make([]TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, newTagView(t))
	}
	return views, nil
}

// Get returns one tag.
func (s *TagService) Get(ctx context.Context, tagID string) (*TagView, error) {
	if err := checkID(id.PrefixTag, tagID); err != nil {
		return nil, err
	}
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, notFound(err, "Tag not found")
	}
	view := newTagView(tag)
	return &view, nil
}

// Update renames a tag. Blogs keep referencing it by ID.
func (s *TagService) Update(ctx context.Context, identity *Identity, tagID string, req TagRequest) (*TagView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkID(id.PrefixTag, tagID); err != nil {
		return nil, err
	}
	req.Name = domain.NormalizeTagName(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, notFound(err, "Tag not found")
	}

	if tag.Name != req.Name {
		tag.Name = req.Name
		tag.Touch()
		if err := s.store.UpdateTag(ctx, tag); err != nil {
			return nil, tagConflict(err, req.Name)
		}
	}

	view := newTagView(tag)
	return &view, nil
}

// Delete removes the tag from every blog and then deletes it.
func (s *TagService) Delete(ctx context.Context, identity *Identity, tagID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if err := checkID(id.PrefixTag, tagID); err != nil {
		return err
	}

	pruned, err := s.store.DeleteTag(ctx, tagID)
	if err != nil {
		return notFound(err, "Tag not found")
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "blogs_pruned", pruned, "user_id", identity.ID)
	return nil
}

func tagConflict(err error, name string) error {
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflictf("Tag '%s' already exists", name)
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound("Tag not found")
	default:
		return fmt.Errorf("save tag: %w", err)
	}
}
