package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

// BlogSearcher finds blogs whose title or description match free text.
type BlogSearcher interface {
	MatchBlogIDs(ctx context.Context, text string) ([]string, error)
}

// BlogService handles blog creation, listing and ownership-checked changes.
type BlogService struct {
	store     store.Store
	tags      *TagResolver
	search    BlogSearcher
	validator *validation.Validator
	views     viewLoader
	logger    *slog.Logger
}

// NewBlogService creates a new blog service.
func NewBlogService(
	store store.Store,
	tags *TagResolver,
	search BlogSearcher,
	validator *validation.Validator,
	logger *slog.Logger,
) *BlogService {
	return &BlogService{
		store:     store,
		tags:      tags,
		search:    search,
		validator: validator,
		views:     viewLoader{store: store},
		logger:    logger,
	}
}

// BlogRequest is the body of blog create and update. On update the tag
// list replaces the existing tags; an absent list clears them.
type BlogRequest struct {
	Title       string         `json:"title" validate:"required,min=3,max=200"`
	Description string         `json:"description" validate:"required,min=10"`
	Tags        domain.TagList `json:"tags,omitempty"`
}

// ListBlogsRequest holds the blog listing filters. Zero values mean
// "no filter" or the default.
type ListBlogsRequest struct {
	Search    string `json:"search"`
	Tags      string `json:"tags"` // comma separated names, any-of
	SortBy    string `json:"sortBy"`
	Page      int    `json:"page" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

const dateOnly = "2006-01-02"

// Create publishes a new blog authored by identity.
func (s *BlogService) Create(ctx context.Context, identity *Identity, req BlogRequest) (*BlogView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	req.trim()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tagIDs, err := s.tags.Resolve(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	blogID, err := id.Generate(id.PrefixBlog)
	if err != nil {
		return nil, fmt.Errorf("generate blog ID: %w", err)
	}

	blog := &domain.Blog{
		Record:      domain.Record{ID: blogID},
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    identity.ID,
		CommentIDs:  []string{},
	}
	blog.SetTags(tagIDs)
	blog.InitTimestamps()

	if err := s.store.CreateBlog(ctx, blog); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	s.logger.Info("blog created", "blog_id", blog.ID, "user_id", identity.ID, "tags", len(blog.TagIDs))
	return s.views.blog(ctx, blog, identity)
}

// List returns one page of blogs matching the filters.
func (s *BlogService) List(ctx context.Context, viewer *Identity, req ListBlogsRequest) (*BlogPage, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sort, ok := store.ParseBlogSort(strings.TrimSpace(req.SortBy))
	if !ok {
		return nil, domainerrors.Validation("sortBy must be one of: title, -title, date, -date")
	}

	q := store.BlogQuery{
		Sort:       sort,
		PageParams: store.PageParams{Page: req.Page, Limit: req.Limit},
	}
	q.Normalize()

	var err error
	if q.From, err = parseDateBound(req.StartDate, "startDate", false); err != nil {
		return nil, err
	}
	if q.To, err = parseDateBound(req.EndDate, "endDate", true); err != nil {
		return nil, err
	}

	if names := domain.ParseTagList(req.Tags); len(names.Names()) > 0 {
		tagIDs, err := s.tags.Lookup(ctx, names)
		if err != nil {
			return nil, err
		}
		if len(tagIDs) == 0 {
			return s.page(ctx, viewer, store.EmptyPage[*domain.Blog](q.PageParams))
		}
		q.TagIDs = tagIDs
	}

	if text := strings.TrimSpace(req.Search); text != "" {
		ids, err := s.search.MatchBlogIDs(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("search blogs: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		q.IDs = ids
	}

	if q.MatchesNothing() {
		return s.page(ctx, viewer, store.EmptyPage[*domain.Blog](q.PageParams))
	}

	result, err := s.store.ListBlogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return s.page(ctx, viewer, result)
}

func (s *BlogService) page(ctx context.Context, viewer *Identity, result *store.PaginatedResult[*domain.Blog]) (*BlogPage, error) {
	views, err := s.views.blogs(ctx, result.Items, viewer)
	if err != nil {
		return nil, err
	}
	return &BlogPage{
		Blogs: views,
		Pagination: Pagination{
			Total:       result.Total,
			Page:        result.Page,
			Limit:       result.Limit,
			TotalPages:  result.TotalPages(),
			HasNextPage: result.HasNext(),
			HasPrevPage: result.HasPrev(),
		},
	}, nil
}

// Get returns a blog with tags, author and comments expanded.
func (s *BlogService) Get(ctx context.Context, viewer *Identity, blogID string) (*BlogDetailView, error) {
	if err := checkID(id.PrefixBlog, blogID); err != nil {
		return nil, err
	}

	blog, err := s.store.GetBlog(ctx, blogID)
	if err != nil {
		return nil, notFound(err, "Blog not found")
	}

	view, err := s.views.blog(ctx, blog, viewer)
	if err != nil {
		return nil, err
	}

	comments, err := s.store.ListCommentsByBlog(ctx, blogID)
	if err != nil {
		return nil, notFound(err, "Blog not found")
	}
	commentViews, err := s.views.comments(ctx, inListOrder(comments, blog.CommentIDs), viewer)
	if err != nil {
		return nil, err
	}

	view.CommentCount = len(commentViews)
	return &BlogDetailView{BlogView: *view, Comments: commentViews}, nil
}

// Update changes title, description and tags of a blog owned by identity.
func (s *BlogService) Update(ctx context.Context, identity *Identity, blogID string, req BlogRequest) (*BlogView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkID(id.PrefixBlog, blogID); err != nil {
		return nil, err
	}
	req.trim()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	blog, err := s.ownedBlog(ctx, identity, blogID, "update")
	if err != nil {
		return nil, err
	}

	tagIDs, err := s.tags.Resolve(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	blog.Title = req.Title
	blog.Description = req.Description
	blog.SetTags(tagIDs)
	blog.Touch()

	if err := s.store.UpdateBlog(ctx, blog); err != nil {
		return nil, notFound(err, "Blog not found")
	}

	s.logger.Info("blog updated", "blog_id", blog.ID, "user_id", identity.ID)
	return s.views.blog(ctx, blog, identity)
}

// Delete removes a blog owned by identity together with its comments.
func (s *BlogService) Delete(ctx context.Context, identity *Identity, blogID string) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if err := checkID(id.PrefixBlog, blogID); err != nil {
		return err
	}

	blog, err := s.ownedBlog(ctx, identity, blogID, "delete")
	if err != nil {
		return err
	}

	if err := s.store.DeleteBlog(ctx, blog.ID); err != nil {
		return notFound(err, "Blog not found")
	}

	s.logger.Info("blog deleted", "blog_id", blog.ID, "user_id", identity.ID, "comments", len(blog.CommentIDs))
	return nil
}

func (s *BlogService) ownedBlog(ctx context.Context, identity *Identity, blogID, action string) (*domain.Blog, error) {
	blog, err := s.store.GetBlog(ctx, blogID)
	if err != nil {
		return nil, notFound(err, "Blog not found")
	}
	if !blog.IsAuthoredBy(identity.ID) {
		s.logger.Warn("blog ownership check failed", "blog_id", blogID, "user_id", identity.ID, "action", action)
		return nil, domainerrors.Forbidden("You are not authorized to " + action + " this blog")
	}
	return blog, nil
}

func (r *BlogRequest) trim() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

// parseDateBound accepts RFC 3339 or YYYY-MM-DD. A date-only upper bound
// covers the whole day.
func parseDateBound(raw, field string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, domainerrors.Validationf("%s must be a valid date", field)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// inListOrder orders comments by their position in the blog's list.
// Comments missing from the list keep their relative order at the end.
func inListOrder(comments []*domain.Comment, order []string) []*domain.Comment {
	pos := make(map[string]int, len(order))
	for i, commentID := range order {
		pos[commentID] = i
	}

	out := make([]*domain.Comment, 0, len(comments))
	var rest []*domain.Comment
	byID := make(map[string]*domain.Comment, len(comments))
	for _, c := range comments {
		if _, ok := pos[c.ID]; ok {
			byID[c.ID] = c
		} else {
			rest = append(rest, c)
		}
	}
	for _, commentID := range order {
		if c, ok := byID[commentID]; ok {
			out = append(out, c)
		}
	}
	return append(out, rest...)
}
