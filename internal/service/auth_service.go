package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Login failure message, shared by the unknown-user and wrong-password paths.
const invalidCredentialsMessage = "Incorrect username or password"

// SignupInput is the data required to register.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput is the data required to authenticate.
type LoginInput struct {
	Username string
	Password string
}

// AuthService registers and authenticates users and resolves token subjects.
type AuthService struct {
	users  repository.UserRepository
	hasher auth.Hasher
	tokens auth.TokenIssuer
	now    Clock

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires an AuthService.
func NewAuthService(users repository.UserRepository, hasher auth.Hasher, tokens auth.TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    systemClock,
	}
}

// WithClock replaces the clock used for created_at.
func (s *AuthService) WithClock(now Clock) *AuthService {
	s.now = now
	return s
}

// Signup creates the account and returns a token for it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.TokenResponse, error) {
	span, ctx := observability.NewSpan(ctx, "AuthService.Signup", attribute.String("user.username", in.Username))
	defer span.End()

	token, err := s.signup(ctx, in)
	observability.RecordAuthAttempt("signup", outcome(err))
	span.SetError(err)
	return token, err
}

func (s *AuthService) signup(ctx context.Context, in SignupInput) (*models.TokenResponse, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError(repository.DuplicateUserMessage)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	// A concurrent signup may have taken the name since the check above;
	// the store reports that as a conflict too.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user.Username)
}

// Login checks the credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.TokenResponse, error) {
	span, ctx := observability.NewSpan(ctx, "AuthService.Login", attribute.String("user.username", in.Username))
	defer span.End()

	token, err := s.login(ctx, in)
	observability.RecordAuthAttempt("login", outcome(err))
	span.SetError(err)
	return token, err
}

func (s *AuthService) login(ctx context.Context, in LoginInput) (*models.TokenResponse, error) {
	if in.Username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt work as a real comparison.
		s.hasher.Verify(in.Password, s.dummy())
		return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
	}

	return s.issue(user.Username)
}

// ResolveUser maps a verified token subject to its user.
func (s *AuthService) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrUnknownSubject
	}
	return user, nil
}

func (s *AuthService) issue(username string) (*models.TokenResponse, error) {
	token, err := s.tokens.Issue(username, 0)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("issue token: %w", err))
	}
	return &models.TokenResponse{AccessToken: token, TokenType: models.TokenTypeBearer}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("quill-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func outcome(err error) string {
	var appErr *models.AppError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &appErr):
		return appErr.Code
	default:
		return "error"
	}
}
