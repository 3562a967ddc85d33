// Package cache 提供解析缓存的存储后端：redis（redigo）、内存（go-cache）与空实现，
// 以及在后端连接失败后永久降级为空实现的 Breaker。
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"linkpulse/internal/config"
)

// ErrUnavailable 后端连接失败（区别于键不存在或服务端返回的错误回复）
var ErrUnavailable = errors.New("cache: backend unavailable")

// Cache 键值缓存。Get 的第二个返回值表示是否命中。
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅在键不存在时写入，返回是否写入
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open 按配置创建缓存后端并包上 Breaker。driver 为 redis 时 pool 不能为空。
func Open(cfg config.CacheConfig, pool *redis.Pool, logger *zap.Logger) (*Breaker, error) {
	var backend Cache
	switch cfg.Driver {
	case config.CacheDriverRedis:
		if pool == nil {
			return nil, fmt.Errorf("cache driver %q requires a redis pool", cfg.Driver)
		}
		backend = NewRedisCache(pool, logger)
	case config.CacheDriverMemory:
		backend = NewMemoryCache(cfg.TTL)
	case config.CacheDriverNone:
		backend = NoopCache{}
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}

	logger.Info("Cache ready", zap.String("driver", cfg.Driver))
	return NewBreaker(backend, logger), nil
}

// NoopCache 永远未命中
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (NoopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, string) error                     { return nil }
func (NoopCache) Close() error                                             { return nil }

func (NoopCache) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, nil
}
