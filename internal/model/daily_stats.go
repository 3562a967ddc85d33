package model

// DailyStat 由定时任务从 ClickEvent 汇总的每日统计
type DailyStat struct {
	BaseModel
	ShortID        string `gorm:"size:32;not null;uniqueIndex:idx_daily_stats_short_date,priority:1" json:"shortId"`
	Date           string `gorm:"size:10;not null;uniqueIndex:idx_daily_stats_short_date,priority:2" json:"date"` // YYYY-MM-DD
	Clicks         int64  `gorm:"not null;default:0" json:"clicks"`
	UniqueVisitors int64  `gorm:"not null;default:0" json:"uniqueVisitors"`
}
