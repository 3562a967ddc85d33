package service

import (
	"context"
	"time"

	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

// LinkStore 短链持久化，见 repository.LinkRepository
type LinkStore interface {
	Create(ctx context.Context, link *model.ShortLink) error
	FindByShortID(ctx context.Context, shortID string, includeInactive bool) (*model.ShortLink, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*model.ShortLink, error)
	IncrementClicks(ctx context.Context, shortID string) error
	SoftDelete(ctx context.Context, shortID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]model.ShortLink, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	TopByClicks(ctx context.Context, limit int) ([]model.ShortLink, error)
}

// ClickStore 访问事件与每日统计，见 repository.ClickRepository
type ClickStore interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	ListByURLID(ctx context.Context, urlID string) ([]model.ClickEvent, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]model.ClickEvent, error)
	AggregateRange(ctx context.Context, start, end time.Time) ([]repository.DailyAggregate, error)
	UpsertDailyStat(ctx context.Context, stat *model.DailyStat) error
	ListDailyStats(ctx context.Context, shortID string) ([]model.DailyStat, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	UpdateAPIKey(ctx context.Context, id uint, apiKey string) error
}

// IDGenerator 生成随机短码，见 shortid.Generator
type IDGenerator interface {
	Generate() (string, error)
}

// ResolutionCache 解析缓存，见 cache.ResolutionCache。实现不返回错误。
type ResolutionCache interface {
	Get(ctx context.Context, shortID string) (string, bool)
	Set(ctx context.Context, shortID, url string)
	Invalidate(ctx context.Context, shortID string)
}

// EventRecorder 异步记录访问事件，Record 不能阻塞
type EventRecorder interface {
	Record(event model.ClickEvent) bool
}
