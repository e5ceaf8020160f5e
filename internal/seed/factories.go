package seed

import (
	"context"
	"fmt"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is shared by every generated user.
const DefaultPassword = "password123"

var categories = []string{"general", "technology", "lifestyle", "travel", "food"}

// Factory builds random users and posts. Output is reproducible for a given
// seed.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	return &Factory{
		faker:   gofakeit.New(seed),
		maxDays: 90,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// BuildUser returns an unsaved user. n keeps usernames and emails unique
// within one run.
func (f *Factory) BuildUser(n int, passwordHash string) *models.User {
	username := fmt.Sprintf("%s_%d", f.faker.Username(), n)
	return &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@%s", username, f.faker.DomainName()),
		PasswordHash: passwordHash,
		CreatedAt:    f.backdate(),
	}
}

// BuildPost returns an unsaved post by author with a created_at spread over
// the last maxDays days.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	created := f.backdate()
	post := &models.Post{
		Title:          f.faker.Sentence(5),
		Content:        f.faker.Paragraph(1, 3, 12, "\n"),
		Category:       f.faker.RandomString(categories),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) backdate() time.Time {
	back := time.Duration(f.faker.IntRange(0, f.maxDays*24*60)) * time.Minute
	return f.now().Add(-back)
}

// Random creates numUsers users and numPosts posts spread across them.
// Every user gets DefaultPassword.
func (s *Seeder) Random(ctx context.Context, f *Factory, numUsers, numPosts int) ([]*models.User, int, error) {
	if numUsers <= 0 {
		return nil, 0, nil
	}

	hash, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, 0, fmt.Errorf("hash default password: %w", err)
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user := f.BuildUser(i, hash)
		if err := s.users.Create(ctx, user); err != nil {
			return users, 0, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		users = append(users, user)
	}

	for i := 0; i < numPosts; i++ {
		post := f.BuildPost(users[i%len(users)])
		if err := s.posts.Create(ctx, post); err != nil {
			return users, i, fmt.Errorf("create post: %w", err)
		}
	}

	return users, numPosts, nil
}
