package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkpulse/constant"
)

// ResolutionCache 短码到原始 URL 的只读穿透缓存。所有错误都被吸收，调用方只看到命中或未命中。
//
// 停用的短码写入空字符串墓碑（读取时按未命中处理），Set 只在键不存在时写入，
// 因此停用前读到数据库、停用后才回填缓存的解析请求不会覆盖墓碑。
type ResolutionCache struct {
	cache  Cache
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

const tombstone = ""

func NewResolutionCache(c Cache, prefix string, ttl time.Duration, logger *zap.Logger) *ResolutionCache {
	return &ResolutionCache{cache: c, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *ResolutionCache) Get(ctx context.Context, shortID string) (string, bool) {
	key := constant.GetShortURLKey(r.prefix, shortID)
	url, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Cache get failed", zap.String("cache_key", key), zap.Error(err))
		return "", false
	}
	if ok && url == tombstone {
		return "", false
	}
	return url, ok
}

// Set 只应在确认数据库命中后调用。已有条目（包括墓碑）时不写入。
func (r *ResolutionCache) Set(ctx context.Context, shortID, url string) {
	key := constant.GetShortURLKey(r.prefix, shortID)
	if _, err := r.cache.SetNX(ctx, key, url, r.ttl); err != nil {
		r.logger.Warn("Cache set failed", zap.String("cache_key", key), zap.Error(err))
	}
}

// Invalidate 用墓碑覆盖缓存条目。短码停用后不会再启用，墓碑与普通条目使用相同 TTL。
func (r *ResolutionCache) Invalidate(ctx context.Context, shortID string) {
	key := constant.GetShortURLKey(r.prefix, shortID)
	if err := r.cache.Set(ctx, key, tombstone, r.ttl); err != nil {
		r.logger.Warn("Cache invalidate failed", zap.String("cache_key", key), zap.Error(err))
	}
}
