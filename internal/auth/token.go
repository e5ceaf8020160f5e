package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is used when no lifetime is configured.
	DefaultTokenTTL = 30 * time.Minute

	// DefaultIssuer and DefaultAudience are stamped into every token and
	// required on verification.
	DefaultIssuer   = "quill-api"
	DefaultAudience = "quill-client"
)

var (
	// ErrMissingCredentials means the request carried no usable bearer token.
	ErrMissingCredentials = errors.New("missing bearer credentials")
	// ErrInvalidToken covers bad signatures, malformed or expired tokens and
	// tokens without a subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownSubject means the token is valid but names no existing user.
	ErrUnknownSubject = errors.New("unknown token subject")
)

func init() {
	// Time claims carry milliseconds so a token lives exactly its TTL
	// instead of losing up to a second to rounding.
	jwt.TimePrecision = time.Millisecond
}

// TokenIssuer creates signed access tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// TokenVerifier checks access tokens and returns their subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenManager issues and verifies HS256 tokens with a single shared secret.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager returns a TokenManager signing with secret. A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &TokenManager{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   DefaultIssuer,
		audience: DefaultAudience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for subject valid for ttl, or for the manager's
// default lifetime when ttl <= 0.
func (m *TokenManager) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{m.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// verifyTime is the clock used for exp and nbf checks, cut to the same
// precision the claims are encoded with.
func (m *TokenManager) verifyTime() time.Time {
	return m.now().Truncate(jwt.TimePrecision)
}

// Verify validates signature, algorithm, issuer, audience and expiry and
// returns the subject claim.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingCredentials
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.verifyTime),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
