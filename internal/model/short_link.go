package model

// ShortLink 短链映射。ShortID 的唯一索引同时覆盖启用和停用的记录，停用后短码不会被复用。
type ShortLink struct {
	BaseModel
	OriginalURL string  `gorm:"size:2048;not null;index:idx_short_links_original_url,length:191" json:"originalUrl"`
	ShortID     string  `gorm:"uniqueIndex;size:32;not null" json:"shortId"`
	CustomSlug  *string `gorm:"size:32" json:"customSlug,omitempty"`
	Clicks      int64   `gorm:"not null;default:0" json:"clicks"`
	IsActive    bool    `gorm:"not null;default:true;index" json:"isActive"`
	CreatorID   *uint   `gorm:"index" json:"creator,omitempty"`
}
