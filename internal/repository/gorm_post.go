package repository

import (
	"context"
	"errors"

	"quill/internal/models"
	"quill/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository returns a PostRepository backed by GORM.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger(storeGorm, postsTable)}
}

// parsePostID accepts any form uuid.Parse does and returns the canonical one
// the rows are stored under.
func parsePostID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", models.NewInvalidIDError("post")
	}
	return parsed.String(), nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery(storeGorm, "insert", postsTable)()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}

	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	key, err := parsePostID(id)
	if err != nil {
		return nil, err
	}

	defer observability.TrackQuery(storeGorm, "select", postsTable)()

	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", key).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post")
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, skip, limit int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	if limit == 0 {
		return posts, nil
	}

	defer observability.TrackQuery(storeGorm, "select", postsTable)()

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	key, err := parsePostID(post.ID)
	if err != nil {
		return err
	}

	defer observability.TrackQuery(storeGorm, "update", postsTable)()

	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", key).
		Updates(map[string]any{
			"title":      post.Title,
			"content":    post.Content,
			"category":   post.Category,
			"updated_at": post.UpdatedAt,
		})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post")
	}

	r.log.LogUpdate(ctx, map[string]any{"post_id": key})
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	key, err := parsePostID(id)
	if err != nil {
		return err
	}

	defer observability.TrackQuery(storeGorm, "delete", postsTable)()

	result := r.db.WithContext(ctx).Where("id = ?", key).Delete(&models.Post{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post")
	}

	r.log.LogDelete(ctx, map[string]any{"post_id": key})
	return nil
}
