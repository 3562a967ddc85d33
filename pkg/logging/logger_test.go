package logging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l, level, err := New(Config{Level: "debug", Path: path})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	l.Info("hello")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	_, level, err := New(Config{Level: "loud"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), logger.Error)

	sql := func() (string, int64) { return "SELECT 1", 0 }
	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.Len())
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, ToGormLogLevel(zapcore.DebugLevel))
	assert.Equal(t, logger.Warn, ToGormLogLevel(zapcore.InfoLevel))
	assert.Equal(t, logger.Error, ToGormLogLevel(zapcore.ErrorLevel))
}
