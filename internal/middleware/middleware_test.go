package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/i18n"
	"linkpulse/internal/model"
	"linkpulse/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newEngine(t *testing.T, mws ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)

	r := gin.New()
	r.Use(GlobalErrorMiddleware(zap.NewNop()), ZapGinLogger(zap.NewNop()), I18nMiddleware(tr))
	r.Use(mws...)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGlobalErrorMiddleware(t *testing.T) {
	r := newEngine(t)
	r.GET("/conflict", func(c *gin.Context) { _ = c.Error(apperrors.ErrSlugInUse) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("dial tcp: secret host")) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(apperrors.SystemError(errors.New("db password wrong"))) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Custom slug already in use", body.Message)

	req := httptest.NewRequest(http.MethodGet, "/conflict", nil)
	req.Header.Set("Accept-Language", "zh-CN")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "自定义短码已被占用", decodeError(t, w).Message)

	for _, path := range []string{"/boom", "/internal"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w).Message)
		assert.NotContains(t, w.Body.String(), "secret")
		assert.NotContains(t, w.Body.String(), "password")
	}
}

func TestZapGinLoggerRequestID(t *testing.T) {
	r := newEngine(t)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestCorsPreflight(t *testing.T) {
	r := newEngine(t, CorsMiddleware())
	r.POST("/urls", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/urls", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

type fakeAuthenticator struct{}

func (fakeAuthenticator) ParseAccessToken(token string) (*service.Claims, error) {
	if token == "good" {
		return &service.Claims{UserID: 7, Role: model.RoleUser}, nil
	}
	return nil, service.ErrInvalidToken
}

func (fakeAuthenticator) AuthenticateAPIKey(_ context.Context, apiKey string) (*model.User, error) {
	if apiKey == "lp_key" {
		return &model.User{BaseModel: model.BaseModel{ID: 8}, Role: model.RoleAdmin}, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func TestRequireAuth(t *testing.T) {
	r := newEngine(t)
	r.GET("/me", RequireAuth(fakeAuthenticator{}), func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, actor)
	})

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		userID uint
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, 0},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, 7},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized, 0},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"}) }, http.StatusOK, 7},
		{"api key", func(r *http.Request) { r.Header.Set(APIKeyHeader, "lp_key") }, http.StatusOK, 8},
		{"bad api key", func(r *http.Request) { r.Header.Set(APIKeyHeader, "nope") }, http.StatusUnauthorized, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				var actor service.Actor
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &actor))
				assert.Equal(t, tc.userID, actor.UserID)
			}
		})
	}
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	r := newEngine(t)
	r.GET("/maybe", OptionalAuth(fakeAuthenticator{}), func(c *gin.Context) {
		_, ok := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

// countingLimiter 进程内的固定窗口计数，只用于测试
type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.err != nil {
		return true, 0, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	if l.counts[key] > limit {
		return false, window, nil
	}
	return true, 0, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int{}}
	r := newEngine(t)
	r.POST("/urls", RateLimit(limiter, "lp:", "shorten", 2, 90*time.Second, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/urls", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/urls", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.Contains(t, limiter.counts, "lp:ratelimit:shorten:192.0.2.1")
}

func TestRateLimitFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := newEngine(t)
	r.POST("/urls", RateLimit(NewRedisLimiter(client), "lp:", "shorten", 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/urls", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}
