package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByUsernameFn func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, string, string) (bool, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return s.existsFn(ctx, username, email)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:        func(_ context.Context, u *models.User) error { u.ID = "user-1"; return nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:        func(_ context.Context, _, _ string) (bool, error) { return false, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, string) (*models.Post, error)
	listFn    func(context.Context, int, int) ([]*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, string) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, skip, limit int) ([]*models.Post, error) {
	return s.listFn(ctx, skip, limit)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, p *models.Post) error { p.ID = "post-1"; return nil },
		getByIDFn: func(_ context.Context, _ string) (*models.Post, error) { return &models.Post{}, nil },
		listFn:    func(_ context.Context, _, _ int) ([]*models.Post, error) { return []*models.Post{}, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ string) error { return nil },
	}
}

// plainHasher "hashes" by prefixing so tests can inspect stored values.
type plainHasher struct {
	verifyCalls int
}

func (h *plainHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", models.NewValidationError("Password must be at most 72 bytes")
	}
	return "hashed:" + plaintext, nil
}

func (h *plainHasher) Verify(plaintext, hash string) bool {
	h.verifyCalls++
	return strings.TrimPrefix(hash, "hashed:") == plaintext && strings.HasPrefix(hash, "hashed:")
}

// tokenStub records the subjects it issued tokens for.
type tokenStub struct {
	subjects []string
	err      error
}

func (s *tokenStub) Issue(subject string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.subjects = append(s.subjects, subject)
	return "token-for-" + subject, nil
}

// stepClock advances by step on every call.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func strPtr(s string) *string { return &s }

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
