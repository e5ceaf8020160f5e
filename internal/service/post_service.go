package service

import (
	"context"
	"time"

	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultPageLimit is used when list requests omit limit.
const DefaultPageLimit = 10

// CreatePostInput is the data for a new post. A nil or empty Category
// becomes models.DefaultCategory.
type CreatePostInput struct {
	Title    string
	Content  string
	Category *string
}

// UpdatePostInput carries the fields to change; nil fields are kept.
type UpdatePostInput struct {
	Title    *string
	Content  *string
	Category *string
}

// PostService implements post listing, retrieval and author-only mutation.
type PostService struct {
	posts    repository.PostRepository
	cache    *cache.PostCache
	now      Clock
	maxLimit int
}

// PostServiceOption customizes a PostService.
type PostServiceOption func(*PostService)

// WithPostClock replaces the clock used for timestamps.
func WithPostClock(now Clock) PostServiceOption {
	return func(s *PostService) {
		s.now = now
	}
}

// WithMaxPageLimit clamps list limits to max. Zero leaves them unbounded.
func WithMaxPageLimit(max int) PostServiceOption {
	return func(s *PostService) {
		s.maxLimit = max
	}
}

// NewPostService wires a PostService. postCache may be nil.
func NewPostService(posts repository.PostRepository, postCache *cache.PostCache, opts ...PostServiceOption) *PostService {
	s := &PostService{
		posts: posts,
		cache: postCache,
		now:   systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPosts returns a page of posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, skip, limit int) ([]*models.Post, error) {
	if skip < 0 {
		return nil, models.NewValidationError("skip must be a non-negative integer")
	}
	if limit < 0 {
		return nil, models.NewValidationError("limit must be a non-negative integer")
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	span, ctx := observability.NewSpan(ctx, "PostService.ListPosts",
		attribute.Int("page.skip", skip), attribute.Int("page.limit", limit))
	defer span.End()

	posts, err := s.posts.List(ctx, skip, limit)
	span.SetError(err)
	span.AddAttributes(attribute.Int("page.count", len(posts)))
	return posts, err
}

// CreatePost stores a new post authored by author.
func (s *PostService) CreatePost(ctx context.Context, author *models.User, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" || in.Content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}

	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost", attribute.String("user.id", author.ID))
	defer span.End()

	category := models.DefaultCategory
	if in.Category != nil && *in.Category != "" {
		category = *in.Category
	}

	now := s.now()
	post := &models.Post{
		Title:          in.Title,
		Content:        in.Content,
		Category:       category,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.String("post.id", post.ID))
	return post, nil
}

// GetPost returns a single post.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.GetPost", attribute.String("post.id", id))
	defer span.End()

	post, err := s.cache.Aside(ctx, id, func(ctx context.Context) (*models.Post, error) {
		return s.posts.GetByID(ctx, id)
	})
	span.SetError(err)
	return post, err
}

// UpdatePost applies the non-nil fields of in to a post owned by caller.
func (s *PostService) UpdatePost(ctx context.Context, caller *models.User, id string, in UpdatePostInput) (*models.Post, error) {
	if in.Title != nil && *in.Title == "" {
		return nil, models.NewValidationError("Title cannot be empty")
	}
	if in.Content != nil && *in.Content == "" {
		return nil, models.NewValidationError("Content cannot be empty")
	}

	span, ctx := observability.NewSpan(ctx, "PostService.UpdatePost",
		attribute.String("post.id", id), attribute.String("user.id", caller.ID))
	defer span.End()

	post, err := s.ownedPost(ctx, caller, id, "update")
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Category != nil {
		post.Category = *in.Category
		if post.Category == "" {
			post.Category = models.DefaultCategory
		}
	}
	post.UpdatedAt = s.nextUpdate(post.UpdatedAt)

	if err := s.posts.Update(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.cache.Invalidate(ctx, post.ID)
	return post, nil
}

// DeletePost removes a post owned by caller.
func (s *PostService) DeletePost(ctx context.Context, caller *models.User, id string) error {
	span, ctx := observability.NewSpan(ctx, "PostService.DeletePost",
		attribute.String("post.id", id), attribute.String("user.id", caller.ID))
	defer span.End()

	post, err := s.ownedPost(ctx, caller, id, "delete")
	if err != nil {
		span.SetError(err)
		return err
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		span.SetError(err)
		return err
	}
	s.cache.Invalidate(ctx, post.ID)
	return nil
}

// ownedPost loads the post straight from the store, bypassing the cache, and
// checks that caller wrote it.
func (s *PostService) ownedPost(ctx context.Context, caller *models.User, id, action string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != caller.ID {
		return nil, models.NewForbiddenError("Not authorized to " + action + " this post")
	}
	return post, nil
}

// nextUpdate returns the current time, nudged forward so updated_at always
// increases even when the clock has not moved since the last write.
func (s *PostService) nextUpdate(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}
