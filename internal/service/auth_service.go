package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/config"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "linkpulse"
	apiKeyPrefix     = "lp_"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims JWT 载荷
type Claims struct {
	UserID    uint   `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // access token 有效秒数
}

// AuthService 注册、登录、令牌签发与 API Key 管理。
// 已使用或登出的 refresh token 记录在进程内吊销表中直到自然过期。
type AuthService struct {
	users          UserStore
	accessSecret   []byte
	refreshSecret  []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
	revokedRefresh *gocache.Cache
	logger         *zap.Logger
}

func NewAuthService(users UserStore, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:          users,
		accessSecret:   []byte(cfg.JWTSecret),
		refreshSecret:  []byte(cfg.RefreshSecret),
		accessTTL:      cfg.AccessTTL,
		refreshTTL:     cfg.RefreshTTL,
		revokedRefresh: gocache.New(cfg.RefreshTTL, time.Hour),
		logger:         logger,
	}
}

// Register 创建普通用户并签发令牌
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, *TokenPair, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperrors.SystemError(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, nil, apperrors.ErrEmailTaken
		}
		s.logger.Error("Failed to create user", zap.String("email", email), zap.Error(err))
		return nil, nil, apperrors.SystemError(err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("User registered", zap.Uint("user_id", user.ID))
	return user, tokens, nil
}

// Login 校验邮箱密码。用户不存在与密码错误返回同一个错误。
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.logger.Error("Failed to load user", zap.Error(err))
		return nil, nil, apperrors.SystemError(err)
	}
	if user == nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh 用 refresh token 换一对新令牌，旧 refresh token 随即失效
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, *TokenPair, error) {
	claims, err := s.parse(refreshToken, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return nil, nil, apperrors.ErrUnauthorized.WithCause(err)
	}
	if _, revoked := s.revokedRefresh.Get(claims.ID); revoked {
		return nil, nil, apperrors.ErrUnauthorized.WithCause(ErrInvalidToken)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, apperrors.SystemError(err)
	}
	if user == nil {
		return nil, nil, apperrors.ErrUnauthorized
	}

	s.revoke(claims)
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Logout 吊销 refresh token，无效的令牌直接忽略
func (s *AuthService) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.parse(refreshToken, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return
	}
	s.revoke(claims)
}

// ParseAccessToken 校验 access token
func (s *AuthService) ParseAccessToken(token string) (*Claims, error) {
	return s.parse(token, s.accessSecret, tokenTypeAccess)
}

// AuthenticateAPIKey 按 API Key 查找用户，不存在时返回 ErrUnauthorized
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	user, err := s.users.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// RotateAPIKey 生成新的 API Key，旧 Key 立即失效
func (s *AuthService) RotateAPIKey(ctx context.Context, userID uint) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.SystemError(err)
	}
	key := apiKeyPrefix + hex.EncodeToString(buf)

	if err := s.users.UpdateAPIKey(ctx, userID, key); err != nil {
		s.logger.Error("Failed to rotate api key", zap.Uint("user_id", userID), zap.Error(err))
		return "", apperrors.SystemError(err)
	}
	s.logger.Info("API key rotated", zap.Uint("user_id", userID))
	return key, nil
}

func (s *AuthService) issueTokens(user *model.User) (*TokenPair, error) {
	access, err := s.sign(user, tokenTypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	refresh, err := s.sign(user, tokenTypeRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

func (s *AuthService) sign(user *model.User, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *AuthService) parse(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) revoke(claims *Claims) {
	ttl := s.refreshTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl > 0 {
		s.revokedRefresh.Set(claims.ID, struct{}{}, ttl)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
