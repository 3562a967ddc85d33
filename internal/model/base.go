package model

import "time"

// BaseModel 通用主键与时间戳（不使用 gorm.DeletedAt，软删除由业务字段表达）
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All 返回需要自动迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&ShortLink{},
		&ClickEvent{},
		&DailyStat{},
	}
}
