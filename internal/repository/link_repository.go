package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"linkpulse/internal/model"
)

// LinkRepository 短链存储（不经过缓存）
type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create 写入新短链，short_id 冲突时返回 ErrDuplicateKey（由唯一索引保证）
func (r *LinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	return translateError(r.db.WithContext(ctx).Create(link).Error)
}

// FindByShortID 按短码查询；includeInactive 为 false 时只返回启用的短链。不存在时返回 nil, nil。
func (r *LinkRepository) FindByShortID(ctx context.Context, shortID string, includeInactive bool) (*model.ShortLink, error) {
	q := r.db.WithContext(ctx).Where("short_id = ?", shortID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	link, err := first(q)
	if err != nil || link == nil {
		return link, err
	}
	// 数据库排序规则不区分大小写时，aBc 会匹配到 abc
	if link.ShortID != shortID {
		return nil, nil
	}
	return link, nil
}

// FindByOriginalURL 查询同一长链接已存在的启用短链（最早创建的一条）。只接受逐字节相同的 URL。
func (r *LinkRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*model.ShortLink, error) {
	var links []model.ShortLink
	err := r.db.WithContext(ctx).
		Where("original_url = ? AND is_active = ?", originalURL, true).
		Order("id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	for i := range links {
		if links[i].OriginalURL == originalURL {
			return &links[i], nil
		}
	}
	return nil, nil
}

// IncrementClicks 原子自增点击数，不做读-改-写
func (r *LinkRepository) IncrementClicks(ctx context.Context, shortID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("short_id = ?", shortID).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", 1)).Error
}

// SoftDelete 停用短链，返回是否有记录被更新
func (r *LinkRepository) SoftDelete(ctx context.Context, shortID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("short_id = ? AND is_active = ?", shortID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByOwner 分页查询用户的短链，按创建时间倒序
func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]model.ShortLink, error) {
	var links []model.ShortLink
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&links).Error
	return links, err
}

func (r *LinkRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("creator_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

// TopByClicks 点击数最多的启用短链
func (r *LinkRepository) TopByClicks(ctx context.Context, limit int) ([]model.ShortLink, error) {
	var links []model.ShortLink
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("clicks DESC").
		Order("id ASC").
		Limit(limit).
		Find(&links).Error
	return links, err
}

func first(q *gorm.DB) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := q.First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}
