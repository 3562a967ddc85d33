package service

import (
	"context"

	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
	"linkpulse/response"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Actor 发起操作的已认证用户
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// LinkManager 用户维度的短链管理：列表与停用
type LinkManager struct {
	links  LinkStore
	cache  ResolutionCache
	logger *zap.Logger
}

func NewLinkManager(links LinkStore, cache ResolutionCache, logger *zap.Logger) *LinkManager {
	return &LinkManager{links: links, cache: cache, logger: logger}
}

// ListMine 分页查询用户创建的短链，新的在前
func (m *LinkManager) ListMine(ctx context.Context, ownerID uint, page, size int) (*response.PageResponse[model.ShortLink], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	total, err := m.links.CountByOwner(ctx, ownerID)
	if err != nil {
		m.logger.Error("Failed to count user links", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}

	// 总数为 0 时不再执行分页查询
	if total == 0 {
		return response.NewPage(page, size, 0, []model.ShortLink{}), nil
	}

	links, err := m.links.ListByOwner(ctx, ownerID, (page-1)*size, size)
	if err != nil {
		m.logger.Error("Failed to list user links", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	return response.NewPage(page, size, int(total), links), nil
}

// Delete 停用短链并清除解析缓存。只有创建者或管理员可以操作，短码不会被复用。
func (m *LinkManager) Delete(ctx context.Context, actor Actor, shortID string) error {
	link, err := m.links.FindByShortID(ctx, shortID, false)
	if err != nil {
		m.logger.Error("Failed to load short link", zap.String("short_id", shortID), zap.Error(err))
		return apperrors.SystemError(err)
	}
	if link == nil {
		return apperrors.ErrNotFound
	}
	if !actor.IsAdmin() && (link.CreatorID == nil || *link.CreatorID != actor.UserID) {
		return apperrors.ErrForbidden
	}

	ok, err := m.links.SoftDelete(ctx, shortID)
	if err != nil {
		m.logger.Error("Failed to deactivate short link", zap.String("short_id", shortID), zap.Error(err))
		return apperrors.SystemError(err)
	}
	if !ok {
		return apperrors.ErrNotFound
	}

	m.cache.Invalidate(ctx, shortID)
	m.logger.Info("Short link deactivated",
		zap.String("short_id", shortID),
		zap.Uint("actor_id", actor.UserID))
	return nil
}
