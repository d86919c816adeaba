package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-migration-audit/internal/model"
	"go-migration-audit/pkg/apierror"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue("migration-team", "Auditor")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "migration-team", claims.Subject)
	assert.Equal(t, RoleAuditor, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_Rejects(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		token, err := svc.Issue("ops", RoleAdmin)
		require.NoError(t, err)

		later := *svc
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.ValidateToken(token.AccessToken)
		apiErr, ok := apierror.As(err)
		require.True(t, ok)
		assert.Equal(t, "token expired", apiErr.Message)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenService(strings.Repeat("x", 32), time.Hour)
		require.NoError(t, err)
		token, err := other.Issue("ops", RoleAdmin)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		require.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "ops", "role": RoleAdmin, "iss": "go-migration-audit", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}

func TestTokenService_Validation(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	require.Error(t, err)

	_, err = NewTokenService(testSecret, 0)
	require.Error(t, err)

	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.Issue("", RoleAuditor)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Issue("ops", "owner")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}
