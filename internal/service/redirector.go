package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/config"
	"linkpulse/internal/model"
	"linkpulse/pkg/utils"
)

// RequestContext 重定向请求中用于访问事件的元数据
type RequestContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
	Source    string
}

// Redirector 解析短码并异步记录访问事件。
//
// 点击计数策略：
//   - cache-miss-only：只在走数据库的路径上自增，缓存命中期间 clicks 不增长，直到缓存过期
//   - every-hit：缓存命中同样自增，每次重定向多一次数据库写
//
// 访问事件与命中路径无关，每次成功解析都记录一次。
type Redirector struct {
	links       LinkStore
	cache       ResolutionCache
	events      EventRecorder
	countPolicy string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewRedirector(links LinkStore, cache ResolutionCache, events EventRecorder, countPolicy string, timeout time.Duration, logger *zap.Logger) *Redirector {
	if countPolicy == "" {
		countPolicy = config.CountOnCacheMissOnly
	}
	return &Redirector{
		links:       links,
		cache:       cache,
		events:      events,
		countPolicy: countPolicy,
		timeout:     timeout,
		logger:      logger,
	}
}

// Resolve 返回目标 URL。未知或已停用的短码返回 ErrNotFound，存储异常返回 ErrInternal。
func (r *Redirector) Resolve(ctx context.Context, shortID string, rc RequestContext) (string, error) {
	if err := utils.ValidateShortCode(shortID); err != nil {
		return "", apperrors.ErrNotFound
	}

	target, hit := r.lookupCache(ctx, shortID)
	if !hit {
		link, err := r.lookupStore(ctx, shortID)
		if err != nil {
			return "", err
		}
		target = link.OriginalURL
		r.incrementClicks(ctx, shortID)
		r.populateCache(ctx, shortID, target)
	} else if r.countPolicy == config.CountOnEveryHit {
		r.incrementClicks(ctx, shortID)
	}

	r.events.Record(buildClickEvent(shortID, rc))
	return target, nil
}

func (r *Redirector) lookupCache(ctx context.Context, shortID string) (string, bool) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.cache.Get(ctx, shortID)
}

func (r *Redirector) lookupStore(ctx context.Context, shortID string) (*model.ShortLink, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	link, err := r.links.FindByShortID(ctx, shortID, false)
	if err != nil {
		r.logger.Error("Failed to resolve short link",
			zap.String("short_id", shortID),
			zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	if link == nil {
		return nil, apperrors.ErrNotFound
	}
	return link, nil
}

// incrementClicks 失败只记日志，不影响重定向
func (r *Redirector) incrementClicks(ctx context.Context, shortID string) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.links.IncrementClicks(ctx, shortID); err != nil {
		r.logger.Warn("Failed to increment clicks",
			zap.String("short_id", shortID),
			zap.Error(err))
	}
}

func (r *Redirector) populateCache(ctx context.Context, shortID, target string) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	r.cache.Set(ctx, shortID, target)
}

func (r *Redirector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func buildClickEvent(shortID string, rc RequestContext) model.ClickEvent {
	ua := utils.ParseUserAgent(rc.UserAgent)
	source := model.SourceWeb
	if rc.Source == model.SourceEmail {
		source = model.SourceEmail
	}
	return model.ClickEvent{
		URLID:      shortID,
		Timestamp:  time.Now().UTC(),
		IPAddress:  rc.IPAddress,
		UserAgent:  rc.UserAgent,
		Referrer:   rc.Referrer,
		Browser:    ua.Browser,
		DeviceType: ua.DeviceType,
		OS:         ua.OS,
		Source:     source,
	}
}
