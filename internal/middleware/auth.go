// Package middleware provides the Fiber middleware chain: authentication,
// request context and logging, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// CredentialsErrorMessage is the body of every authentication failure.
const CredentialsErrorMessage = "Could not validate credentials"

const (
	userLocalsKey   = "user"
	userIDLocalsKey = "userID"
)

// UserResolver maps a verified token subject to the user it names. It
// returns auth.ErrUnknownSubject when no such user exists.
type UserResolver interface {
	ResolveUser(ctx context.Context, username string) (*models.User, error)
}

// AuthRequired rejects requests without a valid bearer token for an existing
// user and stores that user for the handlers.
func AuthRequired(verifier auth.TokenVerifier, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return unauthorized(c, err)
		}

		subject, err := verifier.Verify(token)
		if err != nil {
			return unauthorized(c, err)
		}

		user, err := users.ResolveUser(c.UserContext(), subject)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownSubject) {
				return unauthorized(c, err)
			}
			return models.Respond(c, err)
		}

		c.Locals(userLocalsKey, user)
		c.Locals(userIDLocalsKey, user.ID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), observability.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrMissingCredentials
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrMissingCredentials
	}
	return token, nil
}

// CurrentUser returns the user AuthRequired stored on the request.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userLocalsKey).(*models.User)
	return user, ok && user != nil
}

func unauthorized(c *fiber.Ctx, reason error) error {
	observability.Logger.DebugContext(c.UserContext(), "authentication failed",
		slog.String("path", c.Path()),
		slog.String("reason", reason.Error()),
	)
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError(CredentialsErrorMessage))
}
