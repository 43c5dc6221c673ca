package auth

import (
	"testing"
	"time"

	"nullid/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = domain.Principal{Subject: "alice", Class: domain.PrincipalAuthenticated}

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Hour)

	token, exp, err := m.Issue(alice)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	p, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, alice, p)
}

func TestParseRejects(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Hour)
	token, _, err := m.Issue(alice)
	require.NoError(t, err)

	other := NewTokenManager("other", "nullid", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	_, err = wrongIssuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := m.Issue(alice)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "nullid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRejectsGuest(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Hour)
	_, _, err := m.Issue(domain.Guest())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFunctionClassRoundTrips(t *testing.T) {
	m := NewTokenManager("secret", "nullid", time.Hour)
	fn := domain.Principal{Subject: "uploadHandler", Class: domain.PrincipalFunction}
	token, _, err := m.Issue(fn)
	require.NoError(t, err)

	p, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, fn, p)
}

func TestMissingSecret(t *testing.T) {
	m := NewTokenManager("", "nullid", time.Hour)
	_, _, err := m.Issue(alice)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = m.Parse("x")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
