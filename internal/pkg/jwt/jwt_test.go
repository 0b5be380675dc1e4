package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() Service {
	return NewJWTService("test-secret-key", "15m")
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "a@example.com", user.RoleManager)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "manager", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestPhotoToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.SignPath("attendance/2026-03-02/u1.jpg", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidatePhotoToken(token, "attendance/2026-03-02/u1.jpg"))
	assert.ErrorIs(t, svc.ValidatePhotoToken(token, "attendance/2026-03-02/u2.jpg"), ErrPathMismatch)
}

func TestPhotoToken_RejectsOtherTokens(t *testing.T) {
	svc := newTestService()

	access, _, err := svc.GenerateAccessToken("user-1", "a@example.com", user.RoleUser)
	require.NoError(t, err)
	assert.Error(t, svc.ValidatePhotoToken(access, "attendance/a.jpg"))

	other := NewJWTService("another-secret", "15m")
	foreign, err := other.SignPath("attendance/a.jpg", time.Minute)
	require.NoError(t, err)
	assert.Error(t, svc.ValidatePhotoToken(foreign, "attendance/a.jpg"))

	_, _, err = svc.GeneratePhotoToken("attendance/a.jpg", 0)
	assert.Error(t, err)
}
