package seed

import (
	"context"
	"testing"

	"quill/internal/auth"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeeder(t *testing.T) (*Seeder, repository.UserRepository, repository.PostRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	return NewSeeder(users, posts, auth.NewBcryptHasher(bcrypt.MinCost)), users, posts
}

func TestSeeder_Demo(t *testing.T) {
	ctx := context.Background()
	s, users, posts := setupSeeder(t)

	user, err := s.Demo(ctx)
	require.NoError(t, err)
	assert.Equal(t, DemoUsername, user.Username)
	assert.Equal(t, DemoEmail, user.Email)

	stored, err := users.GetByUsername(ctx, DemoUsername)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, auth.NewBcryptHasher(bcrypt.MinCost).Verify(DemoPassword, stored.PasswordHash))

	list, err := posts.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, len(demoPosts))
	// Newest first: the last template was stamped last.
	assert.Equal(t, "FastAPI Backend Features", list[0].Title)
	assert.Equal(t, "Welcome to FullStack Template", list[2].Title)
	for _, p := range list {
		assert.Equal(t, user.ID, p.AuthorID)
		assert.Equal(t, DemoUsername, p.AuthorUsername)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	}
}

func TestSeeder_DemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _, posts := setupSeeder(t)

	first, err := s.Demo(ctx)
	require.NoError(t, err)
	second, err := s.Demo(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := posts.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, list, len(demoPosts))
}

func TestSeeder_Random(t *testing.T) {
	ctx := context.Background()
	s, users, posts := setupSeeder(t)

	created, n, err := s.Random(ctx, NewFactory(42), 5, 12)
	require.NoError(t, err)
	assert.Len(t, created, 5)
	assert.Equal(t, 12, n)

	for _, u := range created {
		exists, err := users.ExistsByUsernameOrEmail(ctx, u.Username, u.Email)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	list, err := posts.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, list, 12)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "posts must be newest first")
	}
}

func TestSeeder_RandomWithoutUsers(t *testing.T) {
	s, _, _ := setupSeeder(t)
	created, n, err := s.Random(context.Background(), NewFactory(1), 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, created)
	assert.Zero(t, n)
}

func TestFactory_BuildPost(t *testing.T) {
	f := NewFactory(7)
	author := f.BuildUser(0, "hash")
	author.ID = "author-1"

	post := f.BuildPost(author, func(p *models.Post) { p.Category = "travel" })
	assert.NotEmpty(t, post.Title)
	assert.NotEmpty(t, post.Content)
	assert.Equal(t, "travel", post.Category)
	assert.Equal(t, "author-1", post.AuthorID)
	assert.Equal(t, author.Username, post.AuthorUsername)
	assert.False(t, post.CreatedAt.After(f.now()))

	plain := f.BuildPost(author)
	assert.Contains(t, categories, plain.Category)
}
