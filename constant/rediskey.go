package constant

import (
	"fmt"
	"time"
)

// Redis 键模板（不含部署前缀，前缀由配置 cache.prefix 提供）
const (
	ShortURL      = "url:%s"          // <prefix>url:<shortId> -> originalUrl
	RateLimitHits = "ratelimit:%s:%s" // <prefix>ratelimit:<bucket>:<clientIp>
)

// GetShortURLKey 生成解析缓存的 key（格式：<prefix>url:<shortId>）
func GetShortURLKey(prefix, shortID string) string {
	return prefix + fmt.Sprintf(ShortURL, shortID)
}

// GetRateLimitKey 生成限流计数 key（格式：<prefix>ratelimit:<bucket>:<clientIp>）
func GetRateLimitKey(prefix, bucket, clientIP string) string {
	return prefix + fmt.Sprintf(RateLimitHits, bucket, clientIP)
}

// GetDateKey 生成日期键（格式：yyyy-MM-dd），用于每日统计
func GetDateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
