package dto

import (
	"linkpulse/internal/model"
	"linkpulse/internal/service"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255" msg:"error.email_invalid"`
	Password string `json:"password" binding:"required,min=6,max=72" msg:"error.password_invalid"` // bcrypt 只使用前 72 字节
	Name     string `json:"name" binding:"max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest refreshToken 为空时从 Cookie 读取
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	User   *model.User        `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

type APIKeyResponse struct {
	APIKey string `json:"apiKey"`
}

type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Cache  string `json:"cache"`
}
