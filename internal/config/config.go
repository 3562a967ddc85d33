package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"linkpulse/pkg/logging"
)

const envPrefix = "LINKPULSE"

// Click counting policies
const (
	CountOnCacheMissOnly = "cache-miss-only"
	CountOnEveryHit      = "every-hit"
)

// Cache drivers
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Shortener ShortenerConfig `mapstructure:"shortener"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Log       logging.Config  `mapstructure:"log"`
	I18n      I18nConfig      `mapstructure:"i18n"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	BaseURL string `mapstructure:"base_url"`
	// RequestTimeout 解析路径上每次存储/缓存调用的超时
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies 允许提供 X-Forwarded-For 的代理（IP 或 CIDR），为空时只用连接的对端地址
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DBConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type TrackingConfig struct {
	CountPolicy  string        `mapstructure:"count_policy"`
	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ShortenerConfig struct {
	IDLength    int `mapstructure:"id_length"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	CookieDomain  string        `mapstructure:"cookie_domain"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ShortenLimit  int           `mapstructure:"shorten_limit"`
	ShortenWindow time.Duration `mapstructure:"shorten_window"`
	AuthLimit     int           `mapstructure:"auth_limit"`
	AuthWindow    time.Duration `mapstructure:"auth_window"`
}

type StatsConfig struct {
	RollupCron string `mapstructure:"rollup_cron"`
}

type I18nConfig struct {
	DefaultLang string `mapstructure:"default_lang"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.request_timeout", 2*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "linkpulse.db")
	v.SetDefault("db.max_open_conns", 20)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.dial_timeout", 500*time.Millisecond)
	v.SetDefault("redis.read_timeout", 500*time.Millisecond)
	v.SetDefault("redis.write_timeout", 500*time.Millisecond)

	v.SetDefault("cache.driver", CacheDriverRedis)
	v.SetDefault("cache.prefix", "linkpulse:")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("tracking.count_policy", CountOnCacheMissOnly)
	v.SetDefault("tracking.workers", 4)
	v.SetDefault("tracking.queue_size", 1024)
	v.SetDefault("tracking.write_timeout", 5*time.Second)

	v.SetDefault("shortener.id_length", 7)
	v.SetDefault("shortener.max_attempts", 5)

	v.SetDefault("auth.jwt_secret", "change-me-access")
	v.SetDefault("auth.refresh_secret", "change-me-refresh")
	v.SetDefault("auth.access_ttl", time.Hour)
	v.SetDefault("auth.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.shorten_limit", 20)
	v.SetDefault("ratelimit.shorten_window", 5*time.Minute)
	v.SetDefault("ratelimit.auth_limit", 10)
	v.SetDefault("ratelimit.auth_window", time.Hour)

	v.SetDefault("stats.rollup_cron", "*/10 * * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/linkpulse.log")
	v.SetDefault("log.console", true)

	v.SetDefault("i18n.default_lang", "en")
}

// Load 读取配置：先加载可选的 .env，再读取 yaml 配置文件，最后由 LINKPULSE_ 前缀的环境变量覆盖。
// path 为空时在当前目录查找 config.yaml，文件不存在时仅使用默认值。
func Load(path string) (*Config, error) {
	// .env 不存在时忽略（生产环境一般直接注入环境变量）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验枚举值与数值范围
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}

	switch c.Cache.Driver {
	case CacheDriverRedis, CacheDriverMemory, CacheDriverNone:
	default:
		return fmt.Errorf("config: unsupported cache.driver %q", c.Cache.Driver)
	}

	switch c.Tracking.CountPolicy {
	case CountOnCacheMissOnly, CountOnEveryHit:
	default:
		return fmt.Errorf("config: unsupported tracking.count_policy %q", c.Tracking.CountPolicy)
	}

	if c.Cache.TTL <= 0 {
		return errors.New("config: cache.ttl must be positive")
	}
	if c.Tracking.Workers <= 0 || c.Tracking.QueueSize <= 0 {
		return errors.New("config: tracking.workers and tracking.queue_size must be positive")
	}
	if c.Shortener.IDLength <= 0 || c.Shortener.MaxAttempts <= 0 {
		return errors.New("config: shortener.id_length and shortener.max_attempts must be positive")
	}
	if c.Auth.JWTSecret == "" || c.Auth.RefreshSecret == "" {
		return errors.New("config: auth secrets must not be empty")
	}
	return nil
}
