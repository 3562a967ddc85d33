package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linkpulse/internal/cache"
	"linkpulse/internal/config"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.Open(config.DBConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop(), zap.NewAtomicLevel())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })
	return db
}

func newMemoryResolutionCache() *cache.ResolutionCache {
	return cache.NewResolutionCache(cache.NewMemoryCache(time.Hour), "test:", time.Hour, zap.NewNop())
}

func newNoopResolutionCache() *cache.ResolutionCache {
	return cache.NewResolutionCache(cache.NoopCache{}, "test:", time.Hour, zap.NewNop())
}

// sequenceIDs 依次返回预设的短码，用完后报错
type sequenceIDs struct {
	mu  sync.Mutex
	ids []string
}

func (s *sequenceIDs) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return "", errors.New("no more ids")
	}
	id := s.ids[0]
	if len(s.ids) > 1 {
		s.ids = s.ids[1:]
	}
	return id, nil
}

// fakeLinkStore 可注入错误的内存 LinkStore
type fakeLinkStore struct {
	mu         sync.Mutex
	links      map[string]*model.ShortLink
	nextID     uint
	findErr    error
	createErr  error
	raceOnSlug bool // FindByShortID 看不到、Create 却冲突，模拟检查与写入之间的竞争
	finds      int
	increments int
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: map[string]*model.ShortLink{}}
}

func (f *fakeLinkStore) Create(_ context.Context, link *model.ShortLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceOnSlug && link.CustomSlug != nil {
		return fmt.Errorf("%w: unique constraint", repository.ErrDuplicateKey)
	}
	if _, ok := f.links[link.ShortID]; ok {
		return fmt.Errorf("%w: unique constraint", repository.ErrDuplicateKey)
	}
	f.nextID++
	link.ID = f.nextID
	link.CreatedAt = time.Now()
	cp := *link
	f.links[link.ShortID] = &cp
	return nil
}

func (f *fakeLinkStore) FindByShortID(_ context.Context, shortID string, includeInactive bool) (*model.ShortLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	link, ok := f.links[shortID]
	if !ok || (!includeInactive && !link.IsActive) {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (f *fakeLinkStore) FindByOriginalURL(_ context.Context, originalURL string) (*model.ShortLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var found *model.ShortLink
	for _, l := range f.links {
		if l.OriginalURL == originalURL && l.IsActive && (found == nil || l.ID < found.ID) {
			found = l
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (f *fakeLinkStore) IncrementClicks(_ context.Context, shortID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments++
	if l, ok := f.links[shortID]; ok {
		l.Clicks++
	}
	return nil
}

func (f *fakeLinkStore) SoftDelete(_ context.Context, shortID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[shortID]
	if !ok || !l.IsActive {
		return false, nil
	}
	l.IsActive = false
	return true, nil
}

func (f *fakeLinkStore) ListByOwner(context.Context, uint, int, int) ([]model.ShortLink, error) {
	return nil, nil
}

func (f *fakeLinkStore) CountByOwner(context.Context, uint) (int64, error) {
	return 0, nil
}

func (f *fakeLinkStore) TopByClicks(context.Context, int) ([]model.ShortLink, error) {
	return nil, nil
}

func (f *fakeLinkStore) clicks(shortID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.links[shortID]; ok {
		return l.Clicks
	}
	return 0
}

// eventSink 同步收集访问事件的 EventRecorder
type eventSink struct {
	mu     sync.Mutex
	events []model.ClickEvent
}

func (s *eventSink) Record(event model.ClickEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return true
}

func (s *eventSink) recorded() []model.ClickEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ClickEvent(nil), s.events...)
}

// failingClickStore 写入总是失败；panicOnCreate 时直接 panic
type failingClickStore struct {
	*repository.ClickRepository
	panicOnCreate bool
}

func (f *failingClickStore) Create(context.Context, *model.ClickEvent) error {
	if f.panicOnCreate {
		panic("click store exploded")
	}
	return errors.New("click store unavailable")
}
