package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, CacheDriverRedis, cfg.Cache.Driver)
	assert.Equal(t, "linkpulse:", cfg.Cache.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, CountOnCacheMissOnly, cfg.Tracking.CountPolicy)
	assert.Equal(t, 7, cfg.Shortener.IDLength)
	assert.Equal(t, 5, cfg.Shortener.MaxAttempts)
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  trusted_proxies: ["10.0.0.0/8", "192.168.1.5"]
db:
  driver: mysql
  dsn: "user:pass@tcp(127.0.0.1:3306)/links?parseTime=true"
cache:
  driver: memory
  ttl: 90s
tracking:
  count_policy: every-hit
  workers: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, CacheDriverMemory, cfg.Cache.Driver)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, CountOnEveryHit, cfg.Tracking.CountPolicy)
	assert.Equal(t, 2, cfg.Tracking.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "cache:\n  driver: memory\n")
	t.Setenv("LINKPULSE_CACHE_DRIVER", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CacheDriverNone, cfg.Cache.Driver)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	path := writeConfig(t, "tracking:\n  count_policy: sometimes\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "tracking.count_policy")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
