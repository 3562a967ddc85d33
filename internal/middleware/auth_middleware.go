package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
	"linkpulse/internal/service"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	APIKeyHeader       = "X-API-Key"

	actorKey = "actor"
)

type Authenticator interface {
	ParseAccessToken(token string) (*service.Claims, error)
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// RequireAuth 未认证时返回 401
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, true)
}

// OptionalAuth 认证失败按匿名请求处理
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, false)
}

// ActorFrom 取出当前认证用户
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// 依次尝试 Authorization: Bearer、access_token Cookie、X-API-Key
func authenticate(auth Authenticator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolveActor(c, auth)
		if err != nil || actor == nil {
			if required {
				if err == nil {
					err = apperrors.ErrUnauthorized
				}
				_ = c.Error(err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(actorKey, *actor)
		c.Next()
	}
}

func resolveActor(c *gin.Context, auth Authenticator) (*service.Actor, error) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token, _ = c.Cookie(AccessTokenCookie)
	}
	if token != "" {
		claims, err := auth.ParseAccessToken(token)
		if err != nil {
			return nil, apperrors.ErrUnauthorized.WithCause(err)
		}
		return &service.Actor{UserID: claims.UserID, Role: claims.Role}, nil
	}

	if apiKey := strings.TrimSpace(c.GetHeader(APIKeyHeader)); apiKey != "" {
		user, err := auth.AuthenticateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			return nil, err
		}
		return &service.Actor{UserID: user.ID, Role: user.Role}, nil
	}
	return nil, nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
