package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

// RedisCache 基于 redigo 连接池的缓存
type RedisCache struct {
	pool   *redis.Pool
	logger *zap.Logger
}

func NewRedisCache(pool *redis.Pool, logger *zap.Logger) *RedisCache {
	return &RedisCache{pool: pool, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.do(ctx, func(conn redis.Conn) error {
		v, err := redis.String(redis.DoContext(conn, ctx, "GET", key))
		value = v
		return err
	})
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.do(ctx, func(conn redis.Conn) error {
		args := []interface{}{key, value}
		if ttl > 0 {
			args = append(args, "PX", ttl.Milliseconds())
		}
		_, err := redis.DoContext(conn, ctx, "SET", args...)
		return err
	})
}

// SetNX SET key value PX ttl NX，键已存在时回复为 nil
func (c *RedisCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	err := c.do(ctx, func(conn redis.Conn) error {
		args := []interface{}{key, value}
		if ttl > 0 {
			args = append(args, "PX", ttl.Milliseconds())
		}
		args = append(args, "NX")
		_, err := redis.String(redis.DoContext(conn, ctx, "SET", args...))
		return err
	})
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func(conn redis.Conn) error {
		_, err := redis.DoContext(conn, ctx, "DEL", key)
		return err
	})
}

func (c *RedisCache) Close() error {
	return c.pool.Close()
}

// do 从连接池取连接执行 fn，并对错误分类：
// redis.ErrNil 原样返回；服务端错误回复记录日志后按普通错误返回；
// 调用方取消或超时返回 ctx 错误；其他错误视为连接失败，包装为 ErrUnavailable。
func (c *RedisCache) do(ctx context.Context, fn func(conn redis.Conn) error) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug("Failed to close Redis connection", zap.Error(err))
		}
	}()

	return c.classify(ctx, fn(conn))
}

func (c *RedisCache) classify(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, redis.ErrNil) {
		return err
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		c.logger.Warn("Redis error reply", zap.Error(err))
		return fmt.Errorf("cache: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
