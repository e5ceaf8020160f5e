package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/auth"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type resolverFunc func(ctx context.Context, username string) (*models.User, error)

func (f resolverFunc) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	return f(ctx, username)
}

func knownUsers(users ...*models.User) UserResolver {
	return resolverFunc(func(_ context.Context, username string) (*models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return nil, auth.ErrUnknownSubject
	})
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	alice := &models.User{ID: "u-alice", Username: "alice", Email: "alice@example.com"}

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens, knownUsers(alice)), func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"username": user.Username,
			"userID":   c.Locals("userID"),
		})
	})

	generateToken := func(subject string, exp time.Duration) string {
		s, err := tokens.Issue(subject, exp)
		require.NoError(t, err)
		return s
	}

	expired := func() string {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    auth.DefaultIssuer,
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name             string
		authHeader       string
		expectedStatus   int
		expectedUsername string
	}{
		{
			name:             "Happy Path",
			authHeader:       "Bearer " + generateToken("alice", time.Hour),
			expectedStatus:   http.StatusOK,
			expectedUsername: "alice",
		},
		{
			name:             "Lowercase Scheme",
			authHeader:       "bearer " + generateToken("alice", time.Hour),
			expectedStatus:   http.StatusOK,
			expectedUsername: "alice",
		},
		{
			name:           "Missing Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Format",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Scheme Without Token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Token",
			authHeader:     "Bearer malformed.token.here",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + expired(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unknown Subject",
			authHeader:     "Bearer " + generateToken("ghost", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedUsername, body["username"])
				assert.Equal(t, "u-alice", body["userID"])
				return
			}
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			assert.Equal(t, CredentialsErrorMessage, body["error"])
			assert.Equal(t, models.CodeUnauthorized, body["code"])
		})
	}
}

func TestAuthRequired_ResolverFailure(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	failing := resolverFunc(func(_ context.Context, _ string) (*models.User, error) {
		return nil, models.NewInternalError(errors.New("connection refused"))
	})

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens, failing), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, err := tokens.Issue("alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body, "details")
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer", "Token abc", "abc.def.ghi", "Bearer    "} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, auth.ErrMissingCredentials, "header %q", header)
	}
}
