package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/config"
	"linkpulse/internal/dto"
	"linkpulse/internal/i18n"
	"linkpulse/internal/middleware"
	"linkpulse/internal/service"
	"linkpulse/response"
)

type AuthHandler struct {
	auth *service.AuthService
	cfg  config.AuthConfig
}

func NewAuthHandler(auth *service.AuthService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(&req, err))
		return
	}

	user, tokens, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusCreated, response.OK(dto.AuthResponse{User: user, Tokens: tokens}, i18n.T(c.Request.Context(), "message.success", nil)))
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(&req, err))
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, response.OK(dto.AuthResponse{User: user, Tokens: tokens}, i18n.T(c.Request.Context(), "message.success", nil)))
}

// Refresh POST /auth/refresh，refresh token 取自请求体或 Cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		_ = c.Error(apperrors.ErrUnauthorized)
		return
	}

	user, tokens, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearTokenCookies(c)
		_ = c.Error(err)
		return
	}
	h.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, response.OK(dto.AuthResponse{User: user, Tokens: tokens}, i18n.T(c.Request.Context(), "message.success", nil)))
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout(h.refreshToken(c))
	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, response.OK(struct{}{}, i18n.T(c.Request.Context(), "message.logged_out", nil)))
}

// RotateAPIKey POST /auth/api-key
func (h *AuthHandler) RotateAPIKey(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthorized)
		return
	}

	key, err := h.auth.RotateAPIKey(c.Request.Context(), actor.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(dto.APIKeyResponse{APIKey: key}, i18n.T(c.Request.Context(), "message.api_key_rotated", nil)))
}

func (h *AuthHandler) refreshToken(c *gin.Context) string {
	var req dto.RefreshRequest
	// 请求体可以为空
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	return token
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, tokens *service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, seconds(h.cfg.AccessTTL), "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie(middleware.RefreshTokenCookie, tokens.RefreshToken, seconds(h.cfg.RefreshTTL), "/auth", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/auth", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
