package model

import "time"

// Click sources
const (
	SourceWeb   = "web"
	SourceEmail = "email"
)

// ClickEvent 一次重定向的访问记录。URLID 引用 ShortLink.ShortID 而不是主键。
type ClickEvent struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	URLID      string    `gorm:"column:url_id;size:32;not null;index:idx_click_events_url_time,priority:1" json:"urlId"`
	Timestamp  time.Time `gorm:"not null;index:idx_click_events_url_time,priority:2;index" json:"timestamp"`
	IPAddress  string    `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent  string    `gorm:"size:512" json:"userAgent,omitempty"`
	Referrer   string    `gorm:"size:2048" json:"referrer,omitempty"`
	Browser    string    `gorm:"size:64" json:"browser,omitempty"`
	DeviceType string    `gorm:"size:32" json:"deviceType,omitempty"`
	OS         string    `gorm:"column:os;size:64" json:"os,omitempty"`
	Source     string    `gorm:"size:16;not null;default:web" json:"source"`
	CampaignID *string   `gorm:"size:64" json:"campaignId,omitempty"`
}
