// Package auth verifies session tokens and turns them into principals.
package auth

import (
	"errors"
	"fmt"
	"time"

	"nullid/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DevSecret signs tokens in the local environment when no secret is configured.
const DevSecret = "nullid-local-dev-secret"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("jwt secret not configured")
)

type claims struct {
	Class string `json:"cls,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for subject. Only authenticated and function
// principals can hold a token.
func (m *TokenManager) Issue(principal domain.Principal) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if principal.Subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if principal.Class == domain.PrincipalGuest || principal.Class == "" {
		return "", time.Time{}, fmt.Errorf("%w: cannot issue a token for class %q", ErrInvalidToken, principal.Class)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Class: string(principal.Class),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token and returns its principal.
func (m *TokenManager) Parse(token string) (domain.Principal, error) {
	if len(m.secret) == 0 {
		return domain.Principal{}, ErrMissingSecret
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	class := domain.PrincipalAuthenticated
	if c.Class != "" {
		parsed, err := domain.ParsePrincipalClass(c.Class)
		if err != nil || parsed == domain.PrincipalGuest {
			return domain.Principal{}, fmt.Errorf("%w: bad class %q", ErrInvalidToken, c.Class)
		}
		class = parsed
	}
	return domain.Principal{Subject: c.Subject, Class: class}, nil
}
