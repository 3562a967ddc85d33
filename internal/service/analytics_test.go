package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

func newTestAnalytics(t *testing.T) (*Analytics, *repository.LinkRepository, *repository.ClickRepository) {
	db := setupTestDB(t)
	links := repository.NewLinkRepository(db)
	clicks := repository.NewClickRepository(db)
	return NewAnalytics(links, clicks, zap.NewNop()), links, clicks
}

func TestClicksByDateRange(t *testing.T) {
	a, _, clicks := newTestAnalytics(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, clicks.Create(ctx, &model.ClickEvent{URLID: "abc2345", Timestamp: base.AddDate(0, 0, i)}))
	}

	events, err := a.ClicksByDateRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, events, 3, "bounds are inclusive")

	_, err = a.ClicksByDateRange(ctx, base.AddDate(0, 0, 3), base)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func TestClicksByURL(t *testing.T) {
	a, _, clicks := newTestAnalytics(t)
	ctx := context.Background()

	require.NoError(t, clicks.Create(ctx, &model.ClickEvent{URLID: "abc2345"}))
	require.NoError(t, clicks.Create(ctx, &model.ClickEvent{URLID: "other23"}))

	events, err := a.ClicksByURL(ctx, "abc2345")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = a.ClicksByURL(ctx, "")
	assert.Error(t, err)
}

func TestTopLinks(t *testing.T) {
	a, links, _ := newTestAnalytics(t)
	ctx := context.Background()

	for _, id := range []string{"one2345", "two2345", "six2345"} {
		require.NoError(t, links.Create(ctx, &model.ShortLink{OriginalURL: "https://example.com/" + id, ShortID: id, IsActive: true}))
	}
	for i := 0; i < 6; i++ {
		require.NoError(t, links.IncrementClicks(ctx, "six2345"))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, links.IncrementClicks(ctx, "two2345"))
	}

	top, err := a.TopLinks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "six2345", top[0].ShortID)
	assert.Equal(t, "two2345", top[1].ShortID)
}

func TestNormalizeTopLimit(t *testing.T) {
	assert.Equal(t, DefaultTopLimit, NormalizeTopLimit(0))
	assert.Equal(t, DefaultTopLimit, NormalizeTopLimit(-3))
	assert.Equal(t, 25, NormalizeTopLimit(25))
	assert.Equal(t, MaxTopLimit, NormalizeTopLimit(5000))
}

func TestRollup(t *testing.T) {
	a, _, clicks := newTestAnalytics(t)
	ctx := context.Background()

	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	seed := []model.ClickEvent{
		{URLID: "abc2345", Timestamp: day.Add(time.Hour), IPAddress: "1.1.1.1"},
		{URLID: "abc2345", Timestamp: day.Add(2 * time.Hour), IPAddress: "1.1.1.1"},
		{URLID: "abc2345", Timestamp: day.Add(3 * time.Hour), IPAddress: "2.2.2.2"},
		{URLID: "xyz2345", Timestamp: day.Add(4 * time.Hour), IPAddress: "3.3.3.3"},
		{URLID: "abc2345", Timestamp: day.Add(-time.Hour), IPAddress: "4.4.4.4"},
	}
	for i := range seed {
		require.NoError(t, clicks.Create(ctx, &seed[i]))
	}

	n, err := a.Rollup(ctx, day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := a.DailyStats(ctx, "abc2345")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2026-04-02", stats[0].Date)
	assert.EqualValues(t, 3, stats[0].Clicks)
	assert.EqualValues(t, 2, stats[0].UniqueVisitors)

	// 重复汇总覆盖而不是累加
	require.NoError(t, clicks.Create(ctx, &model.ClickEvent{URLID: "abc2345", Timestamp: day.Add(5 * time.Hour), IPAddress: "5.5.5.5"}))
	_, err = a.Rollup(ctx, day)
	require.NoError(t, err)

	stats, err = a.DailyStats(ctx, "abc2345")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.EqualValues(t, 4, stats[0].Clicks)
	assert.EqualValues(t, 3, stats[0].UniqueVisitors)
}
