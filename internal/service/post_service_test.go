package service

import (
	"context"
	"testing"
	"time"

	"quill/internal/cache"
	"quill/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &models.User{ID: "user-alice", Username: "alice"}
	bob   = &models.User{ID: "user-bob", Username: "bob"}
	t0    = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
)

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        CreatePostInput
		wantCategory string
		wantCode     string
	}{
		{name: "Default Category", input: CreatePostInput{Title: "T", Content: "C"}, wantCategory: "general"},
		{name: "Empty Category", input: CreatePostInput{Title: "T", Content: "C", Category: strPtr("")}, wantCategory: "general"},
		{name: "Explicit Category", input: CreatePostInput{Title: "T", Content: "C", Category: strPtr("technology")}, wantCategory: "technology"},
		{name: "Missing Title", input: CreatePostInput{Content: "C"}, wantCode: models.CodeValidation},
		{name: "Missing Content", input: CreatePostInput{Title: "T"}, wantCode: models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPostService(noopPostRepo(), nil, WithPostClock(func() time.Time { return t0 }))

			post, err := svc.CreatePost(context.Background(), alice, tt.input)
			if tt.wantCode != "" {
				assertAppError(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "post-1", post.ID)
			assert.Equal(t, tt.wantCategory, post.Category)
			assert.Equal(t, alice.ID, post.AuthorID)
			assert.Equal(t, alice.Username, post.AuthorUsername)
			assert.True(t, post.CreatedAt.Equal(post.UpdatedAt))
			assert.True(t, t0.Equal(post.CreatedAt))
		})
	}
}

func TestPostService_ListPosts(t *testing.T) {
	t.Parallel()

	var gotSkip, gotLimit int
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, skip, limit int) ([]*models.Post, error) {
		gotSkip, gotLimit = skip, limit
		return []*models.Post{}, nil
	}

	svc := NewPostService(repo, nil)

	_, err := svc.ListPosts(context.Background(), 5, 1000)
	require.NoError(t, err)
	assert.Equal(t, 5, gotSkip)
	assert.Equal(t, 1000, gotLimit, "no upper bound by default")

	_, err = svc.ListPosts(context.Background(), -1, 10)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ListPosts(context.Background(), 0, -1)
	assertAppError(t, err, models.CodeValidation)

	clamped := NewPostService(repo, nil, WithMaxPageLimit(100))
	_, err = clamped.ListPosts(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, gotLimit)
}

func ownedBy(author *models.User, updated time.Time) *models.Post {
	return &models.Post{
		ID:             "post-1",
		Title:          "Original",
		Content:        "Body",
		Category:       "technology",
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CreatedAt:      t0,
		UpdatedAt:      updated,
	}
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Parallel()

	t.Run("Partial Update", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		var saved *models.Post
		repo.updateFn = func(_ context.Context, p *models.Post) error { saved = p; return nil }

		clock := &stepClock{t: t0.Add(time.Minute), step: time.Millisecond}
		svc := NewPostService(repo, nil, WithPostClock(clock.Now))

		post, err := svc.UpdatePost(context.Background(), alice, "post-1", UpdatePostInput{Title: strPtr("New")})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "New", post.Title)
		assert.Equal(t, "Body", post.Content)
		assert.Equal(t, "technology", post.Category)
		assert.True(t, post.UpdatedAt.After(t0))
		assert.True(t, post.CreatedAt.Equal(t0))
	})

	t.Run("Empty Category Resets To Default", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		svc := NewPostService(repo, nil)

		post, err := svc.UpdatePost(context.Background(), alice, "post-1", UpdatePostInput{Category: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "general", post.Category)
	})

	t.Run("Updated At Strictly Increases With Frozen Clock", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		svc := NewPostService(repo, nil, WithPostClock(func() time.Time { return t0 }))

		post, err := svc.UpdatePost(context.Background(), alice, "post-1", UpdatePostInput{})
		require.NoError(t, err)
		assert.True(t, post.UpdatedAt.After(t0))
	})

	t.Run("Not Author", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		repo.updateFn = func(_ context.Context, _ *models.Post) error {
			t.Fatal("update must not reach the store")
			return nil
		}
		svc := NewPostService(repo, nil)

		_, err := svc.UpdatePost(context.Background(), bob, "post-1", UpdatePostInput{Title: strPtr("Hijack")})
		assertAppError(t, err, models.CodeForbidden)
	})

	t.Run("Store Errors Pass Through", func(t *testing.T) {
		for _, storeErr := range []*models.AppError{models.NewNotFoundError("Post"), models.NewInvalidIDError("post")} {
			repo := noopPostRepo()
			repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return nil, storeErr }
			svc := NewPostService(repo, nil)

			_, err := svc.UpdatePost(context.Background(), alice, "x", UpdatePostInput{Title: strPtr("T")})
			assertAppError(t, err, storeErr.Code)
		}
	})

	t.Run("Empty Title Or Content", func(t *testing.T) {
		svc := NewPostService(noopPostRepo(), nil)

		_, err := svc.UpdatePost(context.Background(), alice, "post-1", UpdatePostInput{Title: strPtr("")})
		assertAppError(t, err, models.CodeValidation)

		_, err = svc.UpdatePost(context.Background(), alice, "post-1", UpdatePostInput{Content: strPtr("")})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	t.Run("Author Deletes", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		deleted := ""
		repo.deleteFn = func(_ context.Context, id string) error { deleted = id; return nil }
		svc := NewPostService(repo, nil)

		require.NoError(t, svc.DeletePost(context.Background(), alice, "post-1"))
		assert.Equal(t, "post-1", deleted)
	})

	t.Run("Not Author", func(t *testing.T) {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) { return ownedBy(alice, t0), nil }
		repo.deleteFn = func(_ context.Context, _ string) error {
			t.Fatal("delete must not reach the store")
			return nil
		}
		svc := NewPostService(repo, nil)

		assertAppError(t, svc.DeletePost(context.Background(), bob, "post-1"), models.CodeForbidden)
	})
}

func TestPostService_CacheInvalidation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	current := ownedBy(alice, t0)
	reads := 0
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ string) (*models.Post, error) {
		reads++
		p := *current
		return &p, nil
	}
	repo.updateFn = func(_ context.Context, p *models.Post) error {
		updated := *p
		current = &updated
		return nil
	}

	svc := NewPostService(repo, cache.NewPostCache(client, time.Minute))
	ctx := context.Background()

	_, err = svc.GetPost(ctx, "post-1")
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 1, reads, "second read served from cache")

	_, err = svc.UpdatePost(ctx, alice, "post-1", UpdatePostInput{Title: strPtr("Fresh")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostKey("post-1")))

	post, err := svc.GetPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", post.Title)
}
