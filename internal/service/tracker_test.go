package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkpulse/internal/config"
	"linkpulse/internal/model"
	"linkpulse/internal/repository"
)

func TestTrackerDrainsOnClose(t *testing.T) {
	clicks := repository.NewClickRepository(setupTestDB(t))
	tracker := NewTracker(clicks, config.TrackingConfig{Workers: 3, QueueSize: 64, WriteTimeout: time.Second}, zap.NewNop())
	tracker.Start()

	for i := 0; i < 40; i++ {
		require.True(t, tracker.Record(model.ClickEvent{URLID: "abc2345", IPAddress: "10.0.0.1"}))
	}
	require.NoError(t, tracker.Close(context.Background()))

	events, err := clicks.ListByURLID(context.Background(), "abc2345")
	require.NoError(t, err)
	assert.Len(t, events, 40)
	assert.Zero(t, tracker.Dropped())
	assert.Zero(t, tracker.Failed())
}

func TestTrackerRecordNeverBlocks(t *testing.T) {
	clicks := repository.NewClickRepository(setupTestDB(t))
	// 未启动 worker，队列容量 2
	tracker := NewTracker(clicks, config.TrackingConfig{Workers: 1, QueueSize: 2}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.True(t, tracker.Record(model.ClickEvent{URLID: "a"}))
		assert.True(t, tracker.Record(model.ClickEvent{URLID: "a"}))
		assert.False(t, tracker.Record(model.ClickEvent{URLID: "a"}))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.EqualValues(t, 1, tracker.Dropped())

	// 没有 worker 时 Close 同步写完队列
	require.NoError(t, tracker.Close(context.Background()))
	events, err := clicks.ListByURLID(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestTrackerRejectsAfterClose(t *testing.T) {
	tracker := NewTracker(&failingClickStore{}, config.TrackingConfig{Workers: 1, QueueSize: 4}, zap.NewNop())
	tracker.Start()
	require.NoError(t, tracker.Close(context.Background()))
	require.NoError(t, tracker.Close(context.Background()), "close is idempotent")

	assert.False(t, tracker.Record(model.ClickEvent{URLID: "late"}))
	assert.EqualValues(t, 1, tracker.Dropped())
}

func TestTrackerRecoversFromPanickingStore(t *testing.T) {
	tracker := NewTracker(&failingClickStore{panicOnCreate: true}, config.TrackingConfig{Workers: 1, QueueSize: 4}, zap.NewNop())
	tracker.Start()

	tracker.Record(model.ClickEvent{URLID: "a"})
	tracker.Record(model.ClickEvent{URLID: "b"})
	require.NoError(t, tracker.Close(context.Background()))
	assert.EqualValues(t, 2, tracker.Failed(), "worker survives the first panic")
}
