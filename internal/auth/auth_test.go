package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func signClaims(t *testing.T, claims *JWTClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func baseClaims(accountID, tokenType string, expires time.Time) *JWTClaims {
	return &JWTClaims{
		AccountID: accountID,
		Role:      RoleMember,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken("acc-1", RoleMember, testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken("acc-1", RoleMember, "")

		assert.Error(t, err)
		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		token, err := GenerateAccessToken("acc-42", RoleAdmin, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, "acc-42", claims.AccountID)
		assert.Equal(t, "acc-42", claims.Subject)
		assert.Equal(t, RoleAdmin, claims.Role)
		assert.Equal(t, "access", claims.TokenType)

		diff := claims.ExpiresAt.Time.Sub(time.Now().Add(AccessTokenTTL)).Abs()
		assert.Less(t, diff, 2*time.Second)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken("acc-1", RoleMember, testSecret)
		require.NoError(t, err)

		_, err = ValidateToken(token, "other-secret")
		assert.Error(t, err)
	})

	t.Run("Empty secret", func(t *testing.T) {
		_, err := ValidateToken("whatever", "")
		assert.Equal(t, ErrEmptyJWTSecret, err)
	})

	t.Run("Malformed token", func(t *testing.T) {
		_, err := ValidateToken("not.a.jwt", testSecret)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		token := signClaims(t, baseClaims("acc-1", "access", time.Now().Add(-time.Hour)), testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Refresh token rejected", func(t *testing.T) {
		token := signClaims(t, baseClaims("acc-1", "refresh", time.Now().Add(time.Hour)), testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("Missing account id", func(t *testing.T) {
		token := signClaims(t, baseClaims("", "access", time.Now().Add(time.Hour)), testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrMissingAccount)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		claims := baseClaims("acc-1", "access", time.Now().Add(time.Hour))
		claims.Issuer = "someone-else"
		token := signClaims(t, claims, testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("Unexpected signing method", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims("acc-1", "access", time.Now().Add(time.Hour))).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.Error(t, err)
	})
}
