package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/internal/models"
	"userapi/internal/repository/repotest"
)

func newTokens(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	tokens, err := NewTokenService("super-secret", "HS256", ttl)
	require.NoError(t, err)
	return tokens
}

func TestNewTokenService_RejectsNonHMAC(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"RS256", "none", "ES256", ""} {
		_, err := NewTokenService("secret", alg, time.Minute)
		assert.Error(t, err, alg)
	}

	_, err := NewTokenService("", "HS256", time.Minute)
	assert.Error(t, err)
}

func TestIssue_AddsExpiryAndKeepsClaims(t *testing.T) {
	t.Parallel()

	tokens := newTokens(t, 30*time.Minute)
	issuedAt := time.Now().Truncate(time.Second)

	claims := jwt.MapClaims{"sub": "melissa@test.com", "test": "test"}
	tokenString, err := tokens.Issue(claims)
	require.NoError(t, err)

	_, mutated := claims["exp"]
	assert.False(t, mutated, "Issue must not modify the caller's claims")

	decoded, err := tokens.Parse(tokenString)
	require.NoError(t, err)

	subject, err := decoded.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "melissa@test.com", subject)
	assert.Equal(t, "test", decoded["test"])

	exp, err := decoded.GetExpirationTime()
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.True(t, exp.After(issuedAt))
	assert.WithinDuration(t, issuedAt.Add(30*time.Minute), exp.Time, 2*time.Second)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tokens := newTokens(t, time.Hour)

	expired, err := newTokens(t, -time.Second).Issue(jwt.MapClaims{"sub": "a@test.com"})
	require.NoError(t, err)

	wrongSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@test.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "a@test.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@test.com",
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, jwt.ErrTokenExpired},
		{"wrong secret", wrongSecret, jwt.ErrTokenSignatureInvalid},
		{"unexpected algorithm", otherAlg, jwt.ErrTokenSignatureInvalid},
		{"missing expiry", noExpiry, jwt.ErrTokenRequiredClaimMissing},
		{"malformed", "token-invalido", jwt.ErrTokenMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Parse(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveCurrentUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := repotest.NewMemoryUsers()
	melissa := &models.User{Username: "melissa", Email: "melissa@test.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, melissa))

	tokens := newTokens(t, time.Hour)

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.Issue(jwt.MapClaims{"sub": "melissa@test.com"})
		require.NoError(t, err)

		user, err := tokens.ResolveCurrentUser(ctx, token, users)
		require.NoError(t, err)
		assert.Equal(t, melissa.ID, user.ID)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := tokens.Issue(jwt.MapClaims{"no-email": "test"})
		require.NoError(t, err)

		_, err = tokens.ResolveCurrentUser(ctx, token, users)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("non-string subject", func(t *testing.T) {
		token, err := tokens.Issue(jwt.MapClaims{"sub": 42})
		require.NoError(t, err)

		_, err = tokens.ResolveCurrentUser(ctx, token, users)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, err := tokens.Issue(jwt.MapClaims{"sub": "test@test"})
		require.NoError(t, err)

		_, err = tokens.ResolveCurrentUser(ctx, token, users)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := tokens.ResolveCurrentUser(ctx, "", users)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := tokens.ResolveCurrentUser(ctx, "token-invalido", users)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("storage failure is not an auth failure", func(t *testing.T) {
		broken := repotest.NewMemoryUsers()
		broken.Err = errors.New("db down")

		token, err := tokens.Issue(jwt.MapClaims{"sub": "melissa@test.com"})
		require.NoError(t, err)

		_, err = tokens.ResolveCurrentUser(ctx, token, broken)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})
}
