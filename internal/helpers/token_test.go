package helpers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, kid string, sub string, expires time.Time) string {
	t.Helper()
	claims := &CustomClaims{
		Role:         "authenticated",
		Email:        "ada@example.com",
		UserMetadata: map[string]interface{}{"name": "Ada"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func givenValidator(fallback FallbackVerifier) *TokenValidator {
	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"k1": keyfunc.NewGivenHMAC(testSecret, keyfunc.GivenKeyOptions{Algorithm: "HS256"}),
	})
	return &TokenValidator{jwks: jwks, fallback: fallback, logger: discardLogger()}
}

func TestTokenValidator_VerifiesWithKeySet(t *testing.T) {
	v := givenValidator(nil)
	tok := signedToken(t, "k1", "7b1d3c4e-0000-4000-8000-000000000001", time.Now().Add(time.Hour))

	claims, err := v.Validate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "7b1d3c4e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "Ada", claims.DisplayName())
}

func TestTokenValidator_ExpiredTokenSkipsFallback(t *testing.T) {
	called := false
	v := givenValidator(func(ctx context.Context, token string) (*CustomClaims, error) {
		called = true
		return &CustomClaims{}, nil
	})
	tok := signedToken(t, "k1", "user", time.Now().Add(-time.Minute))

	_, err := v.Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, called)
}

func TestTokenValidator_UnknownKeyFallsBack(t *testing.T) {
	v := givenValidator(func(ctx context.Context, token string) (*CustomClaims, error) {
		c := &CustomClaims{Email: "ada@example.com"}
		c.Subject = "from-auth-server"
		return c, nil
	})
	tok := signedToken(t, "rotated", "user", time.Now().Add(time.Hour))

	claims, err := v.Validate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "from-auth-server", claims.Subject)
}

func TestTokenValidator_FallbackOnly(t *testing.T) {
	v := NewFallbackTokenValidator(func(ctx context.Context, token string) (*CustomClaims, error) {
		if token != "good" {
			return nil, errors.New("user not found")
		}
		return &CustomClaims{Role: "authenticated"}, nil
	}, discardLogger())
	defer v.Close()

	_, err := v.Validate(context.Background(), "good")
	assert.NoError(t, err)

	_, err = v.Validate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Validate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidator_NoVerifier(t *testing.T) {
	v := NewFallbackTokenValidator(nil, discardLogger())
	_, err := v.Validate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWKSURL(t *testing.T) {
	assert.Equal(t, "https://abc.supabase.co/auth/v1/.well-known/jwks.json", JWKSURL("https://abc.supabase.co/"))
}

func TestEnhancedClaims(t *testing.T) {
	var anon *EnhancedClaims
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", anon.ID().String())
	assert.False(t, anon.IsOwner("x"))

	ec := &EnhancedClaims{
		CustomClaims: &CustomClaims{UserMetadata: map[string]interface{}{"name": "Ada"}},
		UserID:       "7b1d3c4e-0000-4000-8000-000000000001",
		Email:        "ada@example.com",
	}
	assert.Equal(t, "7b1d3c4e-0000-4000-8000-000000000001", ec.ID().String())
	assert.True(t, ec.IsOwner("7b1d3c4e-0000-4000-8000-000000000001"))
	assert.Equal(t, "Ada", ec.GetDisplayName())

	ec.CustomClaims = nil
	assert.Equal(t, "ada@example.com", ec.GetDisplayName())

	ec.UserID = "not-a-uuid"
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", ec.ID().String())
}
