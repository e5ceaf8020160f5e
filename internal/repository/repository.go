// Package repository implements the data access layer for the application.
//
// Every store returns *models.AppError values for the conditions callers act
// on: NOT_FOUND for missing records, INVALID_ID for identifiers the store
// cannot parse and CONFLICT for username or email collisions. Anything else
// is an infrastructure failure.
package repository

import (
	"context"

	"quill/internal/models"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create assigns an ID to user and inserts it.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername returns (nil, nil) when no user has that username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ExistsByUsernameOrEmail reports whether any user matches either field.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// Create assigns an ID to post and inserts it.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// List returns posts newest first, ties broken by ID descending.
	List(ctx context.Context, skip, limit int) ([]*models.Post, error)
	// Update overwrites title, content, category and updated_at.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

const (
	storeGorm  = "gorm"
	storeMongo = "mongo"

	usersTable = "users"
	postsTable = "posts"
)

// DuplicateUserMessage is reported when a username or email is taken.
const DuplicateUserMessage = "Username or email already registered"

func duplicateUserError() error {
	return models.NewConflictError(DuplicateUserMessage)
}
