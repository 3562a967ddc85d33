package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"linkpulse/internal/config"
	"linkpulse/internal/model"
)

// Tracker 有界队列 + 固定数量的 worker 写访问事件。
// Record 从不阻塞调用方：队列满或已关闭时丢弃事件并计数。
type Tracker struct {
	store        ClickStore
	queue        chan model.ClickEvent
	workers      int
	writeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewTracker(store ClickStore, cfg config.TrackingConfig, logger *zap.Logger) *Tracker {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Tracker{
		store:        store,
		queue:        make(chan model.ClickEvent, queueSize),
		workers:      workers,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}
}

// Start 启动 worker，重复调用无效
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.closed {
		return
	}
	t.started = true
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.run(i)
	}
	t.logger.Info("Click tracker started", zap.Int("workers", t.workers), zap.Int("queue_size", cap(t.queue)))
}

// Record 返回事件是否入队
func (t *Tracker) Record(event model.ClickEvent) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return false
	}
	select {
	case t.queue <- event:
		return true
	default:
		t.dropped.Add(1)
		t.logger.Warn("Click event queue full, dropping event", zap.String("url_id", event.URLID))
		return false
	}
}

// Close 停止接收新事件并等待队列中的事件写完，ctx 到期时返回错误
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.queue)
	started := t.started
	t.mu.Unlock()

	if !started {
		// 没有 worker 时在当前 goroutine 里写完
		for event := range t.queue {
			t.write(event)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Click tracker drained",
			zap.Int64("dropped", t.dropped.Load()),
			zap.Int64("failed", t.failed.Load()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain click tracker: %w", ctx.Err())
	}
}

// Dropped 被丢弃的事件数
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}

// Failed 写入失败的事件数
func (t *Tracker) Failed() int64 {
	return t.failed.Load()
}

func (t *Tracker) run(worker int) {
	defer t.wg.Done()
	for event := range t.queue {
		t.write(event)
	}
	t.logger.Debug("Click tracker worker stopped", zap.Int("worker", worker))
}

func (t *Tracker) write(event model.ClickEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.failed.Add(1)
			t.logger.Error("Panic while writing click event",
				zap.String("url_id", event.URLID),
				zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if t.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.writeTimeout)
		defer cancel()
	}

	if err := t.store.Create(ctx, &event); err != nil {
		t.failed.Add(1)
		t.logger.Error("Failed to record click event",
			zap.String("url_id", event.URLID),
			zap.Error(err))
	}
}
