package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
	"linkpulse/pkg/utils"
)

const defaultMaxAttempts = 5

type ShortenInput struct {
	OriginalURL string
	CustomSlug  string
	CreatorID   *uint
}

// Shortener 分配短码。生成的短码与自定义短码共用同一个命名空间，
// 唯一性最终由 short_id 唯一索引保证。
type Shortener struct {
	links       LinkStore
	ids         IDGenerator
	maxAttempts int
	logger      *zap.Logger
}

func NewShortener(links LinkStore, ids IDGenerator, maxAttempts int, logger *zap.Logger) *Shortener {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Shortener{links: links, ids: ids, maxAttempts: maxAttempts, logger: logger}
}

// Shorten 返回短链以及是否新建。未指定自定义短码且原始 URL 已有启用的短链时直接复用。
// 不写缓存，缓存在首次解析时填充。
func (s *Shortener) Shorten(ctx context.Context, in ShortenInput) (*model.ShortLink, bool, error) {
	originalURL := strings.TrimSpace(in.OriginalURL)
	if err := utils.ValidateTargetURL(originalURL); err != nil {
		return nil, false, apperrors.ErrInvalidURL.WithCause(err)
	}

	slug := strings.TrimSpace(in.CustomSlug)
	if slug != "" {
		link, err := s.createWithSlug(ctx, originalURL, slug, in.CreatorID)
		if err != nil {
			return nil, false, err
		}
		return link, true, nil
	}

	existing, err := s.links.FindByOriginalURL(ctx, originalURL)
	if err != nil {
		s.logger.Error("Failed to look up existing short link",
			zap.String("original_url", originalURL),
			zap.Error(err))
		return nil, false, apperrors.SystemError(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	link, err := s.createWithGeneratedID(ctx, originalURL, in.CreatorID)
	if err != nil {
		return nil, false, err
	}
	return link, true, nil
}

func (s *Shortener) createWithSlug(ctx context.Context, originalURL, slug string, creatorID *uint) (*model.ShortLink, error) {
	if err := utils.ValidateCustomSlug(slug); err != nil {
		return nil, apperrors.ErrInvalidSlug.WithCause(err)
	}

	// 停用的短链同样占用命名空间
	existing, err := s.links.FindByShortID(ctx, slug, true)
	if err != nil {
		s.logger.Error("Failed to check custom slug", zap.String("slug", slug), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}
	if existing != nil {
		return nil, apperrors.ErrSlugInUse
	}

	link := newLink(originalURL, slug, creatorID)
	link.CustomSlug = &slug
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.ErrSlugInUse
		}
		s.logger.Error("Failed to create short link", zap.String("slug", slug), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}

	s.logger.Info("Short link created", zap.String("short_id", slug), zap.Bool("custom", true))
	return link, nil
}

func (s *Shortener) createWithGeneratedID(ctx context.Context, originalURL string, creatorID *uint) (*model.ShortLink, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		shortID, err := s.ids.Generate()
		if err != nil {
			return nil, apperrors.SystemError(err)
		}

		link := newLink(originalURL, shortID, creatorID)
		err = s.links.Create(ctx, link)
		if err == nil {
			s.logger.Info("Short link created", zap.String("short_id", shortID), zap.Int("attempt", attempt))
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Error("Failed to create short link", zap.String("short_id", shortID), zap.Error(err))
			return nil, apperrors.SystemError(err)
		}
		s.logger.Warn("Generated short id collided, retrying",
			zap.String("short_id", shortID),
			zap.Int("attempt", attempt))
	}

	s.logger.Error("Short id allocation exhausted", zap.Int("attempts", s.maxAttempts))
	return nil, apperrors.ErrIdentifierExhausted
}

func newLink(originalURL, shortID string, creatorID *uint) *model.ShortLink {
	return &model.ShortLink{
		OriginalURL: originalURL,
		ShortID:     shortID,
		Clicks:      0,
		IsActive:    true,
		CreatorID:   creatorID,
	}
}
