package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/config"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

func newTestAuth(t *testing.T) *AuthService {
	return NewAuthService(repository.NewUserRepository(setupTestDB(t)), config.AuthConfig{
		JWTSecret:     "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()

	user, tokens, err := s.Register(ctx, "  Alice@Example.com ", "secret1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.EqualValues(t, 3600, tokens.ExpiresIn)

	claims, err := s.ParseAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = s.Register(ctx, "alice@example.com", "another", "")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	_, _, err = s.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	loggedIn, _, err := s.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	s := newTestAuth(t)
	_, tokens, err := s.Register(context.Background(), "bob@example.com", "secret1", "")
	require.NoError(t, err)

	_, err = s.ParseAccessToken(tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = s.Refresh(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = s.ParseAccessToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()
	_, tokens, err := s.Register(ctx, "carol@example.com", "secret1", "")
	require.NoError(t, err)

	_, rotated, err := s.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, _, err = s.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "used refresh token is revoked")

	s.Logout(rotated.RefreshToken)
	_, _, err = s.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestExpiredAccessToken(t *testing.T) {
	s := NewAuthService(repository.NewUserRepository(setupTestDB(t)), config.AuthConfig{
		JWTSecret:     "a",
		RefreshSecret: "r",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	}, zap.NewNop())

	_, tokens, err := s.Register(context.Background(), "dave@example.com", "secret1", "")
	require.NoError(t, err)

	_, err = s.ParseAccessToken(tokens.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRotateAPIKey(t *testing.T) {
	s := newTestAuth(t)
	ctx := context.Background()
	user, _, err := s.Register(ctx, "erin@example.com", "secret1", "")
	require.NoError(t, err)

	first, err := s.RotateAPIKey(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "lp_"))

	found, err := s.AuthenticateAPIKey(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	second, err := s.RotateAPIKey(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = s.AuthenticateAPIKey(ctx, first)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
