// Package seed provides helpers to create demo and test data through the
// repository interfaces, so it works against every store driver. These
// helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
)

// Demo account credentials.
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
)

type postTemplate struct {
	Title    string
	Content  string
	Category string
}

var demoPosts = []postTemplate{
	{
		Title:    "Welcome to FullStack Template",
		Content:  "This is a sample blog post to demonstrate the full-stack template functionality. You can create, read, update, and delete posts.",
		Category: "general",
	},
	{
		Title:    "Getting Started with React",
		Content:  "React is a powerful JavaScript library for building user interfaces. This template uses React with TypeScript for type safety.",
		Category: "technology",
	},
	{
		Title:    "FastAPI Backend Features",
		Content:  "The backend is built with FastAPI, providing automatic API documentation, type validation, and high performance.",
		Category: "technology",
	},
}

// Seeder writes seed data through the repositories.
type Seeder struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	hasher auth.Hasher
	now    func() time.Time
}

// NewSeeder creates a Seeder bound to the given stores.
func NewSeeder(users repository.UserRepository, posts repository.PostRepository, hasher auth.Hasher) *Seeder {
	return &Seeder{
		users:  users,
		posts:  posts,
		hasher: hasher,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// Demo creates the demo account and its posts. It is a no-op when the demo
// account already exists, so it is safe to run on every boot.
func (s *Seeder) Demo(ctx context.Context) (*models.User, error) {
	existing, err := s.users.GetByUsername(ctx, DemoUsername)
	if err != nil {
		return nil, fmt.Errorf("look up demo user: %w", err)
	}
	if existing != nil {
		observability.Logger.InfoContext(ctx, "demo data already present", slog.String("user_id", existing.ID))
		return existing, nil
	}

	hash, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     DemoUsername,
		Email:        DemoEmail,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}

	for i, tpl := range demoPosts {
		// Later templates are newer so the listing shows them in reverse.
		at := now.Add(time.Duration(i) * time.Millisecond)
		post := &models.Post{
			Title:          tpl.Title,
			Content:        tpl.Content,
			Category:       tpl.Category,
			AuthorID:       user.ID,
			AuthorUsername: user.Username,
			CreatedAt:      at,
			UpdatedAt:      at,
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create demo post %q: %w", tpl.Title, err)
		}
	}

	observability.Logger.InfoContext(ctx, "demo data seeded",
		slog.String("user_id", user.ID),
		slog.Int("posts", len(demoPosts)),
	)
	return user, nil
}
