package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Breaker 包装一个缓存后端。第一次遇到 ErrUnavailable 后永久切换为 NoopCache，
// 之后的请求不再尝试连接，直到进程重启。
type Breaker struct {
	backend Cache
	tripped atomic.Bool
	logger  *zap.Logger
}

func NewBreaker(backend Cache, logger *zap.Logger) *Breaker {
	return &Breaker{backend: backend, logger: logger}
}

// Tripped 是否已降级为空缓存
func (b *Breaker) Tripped() bool {
	return b.tripped.Load()
}

func (b *Breaker) current() Cache {
	if b.tripped.Load() {
		return NoopCache{}
	}
	return b.backend
}

func (b *Breaker) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := b.current().Get(ctx, key)
	if err != nil {
		return "", false, b.observe(err)
	}
	return v, ok, nil
}

func (b *Breaker) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.observe(b.current().Set(ctx, key, value, ttl))
}

func (b *Breaker) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := b.current().SetNX(ctx, key, value, ttl)
	if err != nil {
		return false, b.observe(err)
	}
	return ok, nil
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	return b.observe(b.current().Delete(ctx, key))
}

// Close 总是关闭底层后端，即使已经降级
func (b *Breaker) Close() error {
	return b.backend.Close()
}

// observe 连接失败时熔断并吞掉错误，其余错误原样返回
func (b *Breaker) observe(err error) error {
	if err == nil || !errors.Is(err, ErrUnavailable) {
		return err
	}
	if b.tripped.CompareAndSwap(false, true) {
		b.logger.Error("Cache backend unavailable, falling back to no-op cache for the rest of the process",
			zap.Error(err))
	}
	return nil
}
