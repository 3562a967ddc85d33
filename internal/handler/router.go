package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linkpulse/internal/config"
	"linkpulse/internal/i18n"
	"linkpulse/internal/middleware"
)

// Handlers 路由依赖
type Handlers struct {
	ShortLink *ShortLinkHandler
	Redirect  *RedirectHandler
	Analytics *AnalyticsHandler
	Auth      *AuthHandler
	Health    *HealthHandler
}

// RouterOptions limiter 为 nil 时不限流；TrustedProxies 为空时不信任任何 X-Forwarded-For
type RouterOptions struct {
	TrustedProxies []string
	Translator     *i18n.Translator
	Authenticator  middleware.Authenticator
	Limiter        middleware.Limiter
	RateLimit      config.RateLimitConfig
	KeyPrefix      string
	Logger         *zap.Logger
}

func NewRouter(h Handlers, opts RouterOptions) (*gin.Engine, error) {
	r := gin.New()
	// ClientIP 用于限流 key 与访问事件，只接受可信代理转发的地址
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())

	// 访问日志在最外层，记录错误中间件写出的最终状态码
	r.Use(middleware.ZapGinLogger(opts.Logger))
	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware(opts.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(opts.Translator))

	shortenLimit := rateLimit(opts, "shorten", opts.RateLimit.ShortenLimit, opts.RateLimit.ShortenWindow)
	authLimit := rateLimit(opts, "auth", opts.RateLimit.AuthLimit, opts.RateLimit.AuthWindow)
	requireAuth := middleware.RequireAuth(opts.Authenticator)
	optionalAuth := middleware.OptionalAuth(opts.Authenticator)

	urls := r.Group("/urls")
	{
		urls.POST("", shortenLimit, optionalAuth, h.ShortLink.Create)
		urls.POST("/process-html", shortenLimit, optionalAuth, h.ShortLink.ProcessHTML)
		urls.GET("/mine", requireAuth, h.ShortLink.ListMine)
		urls.DELETE("/:shortId", requireAuth, h.ShortLink.Delete)
	}

	analytics := r.Group("/analytics")
	{
		analytics.GET("/url/:urlId", h.Analytics.ByURL)
		analytics.GET("/url/:urlId/daily", h.Analytics.Daily)
		analytics.GET("/date-range", h.Analytics.DateRange)
		analytics.GET("/top", h.Analytics.Top)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", authLimit, h.Auth.Register)
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/refresh", authLimit, h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/api-key", requireAuth, h.Auth.RotateAPIKey)
	}

	r.GET("/healthz", h.Health.Check)

	// 重定向最后注册，静态路由优先匹配
	r.GET("/:shortId", h.Redirect.Redirect)

	return r, nil
}

func rateLimit(opts RouterOptions, bucket string, limit int, window time.Duration) gin.HandlerFunc {
	if opts.Limiter == nil || !opts.RateLimit.Enabled || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(opts.Limiter, opts.KeyPrefix, bucket, limit, window, opts.Logger)
}
