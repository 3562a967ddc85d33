package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"linkpulse/constant"
	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

// Analytics 访问事件查询与每日汇总
type Analytics struct {
	links  LinkStore
	clicks ClickStore
	logger *zap.Logger
}

func NewAnalytics(links LinkStore, clicks ClickStore, logger *zap.Logger) *Analytics {
	return &Analytics{links: links, clicks: clicks, logger: logger}
}

// ClicksByURL 某个短码的全部访问事件，新的在前
func (a *Analytics) ClicksByURL(ctx context.Context, urlID string) ([]model.ClickEvent, error) {
	if urlID == "" {
		return nil, apperrors.InvalidRequestError("error.url_id_required")
	}
	events, err := a.clicks.ListByURLID(ctx, urlID)
	if err != nil {
		a.logger.Error("Failed to query clicks by url", zap.String("url_id", urlID), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return events, nil
}

// ClicksByDateRange 闭区间 [start, end] 内的访问事件
func (a *Analytics) ClicksByDateRange(ctx context.Context, start, end time.Time) ([]model.ClickEvent, error) {
	if start.After(end) {
		return nil, apperrors.InvalidRequestError("error.date_range_invalid")
	}
	events, err := a.clicks.ListByDateRange(ctx, start, end)
	if err != nil {
		a.logger.Error("Failed to query clicks by date range",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return events, nil
}

// NormalizeTopLimit 非正数取默认值，超过上限截断
func NormalizeTopLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopLimit
	}
	if limit > MaxTopLimit {
		return MaxTopLimit
	}
	return limit
}

// TopLinks 点击数最多的启用短链
func (a *Analytics) TopLinks(ctx context.Context, limit int) ([]model.ShortLink, error) {
	links, err := a.links.TopByClicks(ctx, NormalizeTopLimit(limit))
	if err != nil {
		a.logger.Error("Failed to query top links", zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return links, nil
}

func (a *Analytics) DailyStats(ctx context.Context, urlID string) ([]model.DailyStat, error) {
	stats, err := a.clicks.ListDailyStats(ctx, urlID)
	if err != nil {
		a.logger.Error("Failed to query daily stats", zap.String("url_id", urlID), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return stats, nil
}

// Rollup 把 day（UTC）当天的访问事件按短码汇总写入 daily_stats，返回写入的条数。
// 单条写入失败不会中断其余短码。
func (a *Analytics) Rollup(ctx context.Context, day time.Time) (int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	date := constant.GetDateKey(start)

	aggregates, err := a.clicks.AggregateRange(ctx, start, end)
	if err != nil {
		return 0, err
	}

	var errs []error
	written := 0
	for _, agg := range aggregates {
		stat := &model.DailyStat{
			ShortID:        agg.URLID,
			Date:           date,
			Clicks:         agg.Clicks,
			UniqueVisitors: agg.UniqueVisitors,
		}
		if err := a.clicks.UpsertDailyStat(ctx, stat); err != nil {
			a.logger.Error("Failed to upsert daily stat",
				zap.String("short_id", agg.URLID),
				zap.String("date", date),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		written++
	}

	a.logger.Info("Daily stats rolled up",
		zap.String("date", date),
		zap.Int("links", written))
	return written, errors.Join(errs...)
}
