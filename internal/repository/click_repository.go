package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkpulse/internal/model"
)

// DailyAggregate 某天某个短码的聚合结果
type DailyAggregate struct {
	URLID          string `gorm:"column:url_id"`
	Clicks         int64  `gorm:"column:clicks"`
	UniqueVisitors int64  `gorm:"column:unique_visitors"`
}

// ClickRepository 访问事件与每日统计存储
type ClickRepository struct {
	db *gorm.DB
}

func NewClickRepository(db *gorm.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

func (r *ClickRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	// 统一存 UTC，SQLite 按字符串比较时间
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()
	if event.Source == "" {
		event.Source = model.SourceWeb
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByURLID 查询某个短码的全部访问事件，按时间倒序
func (r *ClickRepository) ListByURLID(ctx context.Context, urlID string) ([]model.ClickEvent, error) {
	var events []model.ClickEvent
	err := r.db.WithContext(ctx).
		Where("url_id = ?", urlID).
		Order("timestamp DESC").
		Find(&events).Error
	return events, err
}

// ListByDateRange 查询 [start, end] 区间内的访问事件，按时间倒序
func (r *ClickRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.ClickEvent, error) {
	var events []model.ClickEvent
	err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start.UTC(), end.UTC()).
		Order("timestamp DESC").
		Find(&events).Error
	return events, err
}

// AggregateRange 按短码汇总 [start, end) 内的点击数与独立 IP 数
func (r *ClickRepository) AggregateRange(ctx context.Context, start, end time.Time) ([]DailyAggregate, error) {
	var rows []DailyAggregate
	err := r.db.WithContext(ctx).
		Model(&model.ClickEvent{}).
		Select("url_id AS url_id, COUNT(*) AS clicks, COUNT(DISTINCT ip_address) AS unique_visitors").
		Where("timestamp >= ? AND timestamp < ?", start.UTC(), end.UTC()).
		Group("url_id").
		Scan(&rows).Error
	return rows, err
}

// UpsertDailyStat 按 (short_id, date) 插入或覆盖统计值
func (r *ClickRepository) UpsertDailyStat(ctx context.Context, stat *model.DailyStat) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "short_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"clicks", "unique_visitors", "updated_at"}),
	}).Create(stat).Error
}

// ListDailyStats 查询某个短码的每日统计，按日期倒序
func (r *ClickRepository) ListDailyStats(ctx context.Context, shortID string) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	err := r.db.WithContext(ctx).
		Where("short_id = ?", shortID).
		Order("date DESC").
		Find(&stats).Error
	return stats, err
}
