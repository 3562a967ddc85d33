package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Roller 见 service.Analytics
type Roller interface {
	Rollup(ctx context.Context, day time.Time) (int, error)
}

// RollupJob 把当天的访问事件汇总进 DailyStat。
// UTC 零点后的第一个小时内同时重算前一天，补上前一天最后一次调度之后的点击。
type RollupJob struct {
	roller  Roller
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewRollupJob(roller Roller, timeout time.Duration, logger *zap.Logger) *RollupJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RollupJob{roller: roller, timeout: timeout, logger: logger, now: time.Now}
}

// Run 实现 cron.Job
func (j *RollupJob) Run() {
	now := j.now().UTC()
	days := []time.Time{now}
	if now.Hour() == 0 {
		days = append(days, now.AddDate(0, 0, -1))
	}

	for _, day := range days {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		n, err := j.roller.Rollup(ctx, day)
		cancel()
		if err != nil {
			j.logger.Error("Daily stats rollup failed",
				zap.String("date", day.Format("2006-01-02")),
				zap.Error(err))
			continue
		}
		j.logger.Info("Daily stats rolled up",
			zap.String("date", day.Format("2006-01-02")),
			zap.Int("links", n))
	}
}

// NewScheduler 按 cron 表达式（标准 5 段）调度 job。任务 panic 被恢复，上一次未结束时跳过本次。
func NewScheduler(expr string, job cron.Job, logger *zap.Logger) (*cron.Cron, error) {
	l := cronLogger{logger.Sugar()}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	if _, err := c.AddJob(expr, job); err != nil {
		return nil, fmt.Errorf("schedule rollup %q: %w", expr, err)
	}
	return c, nil
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
