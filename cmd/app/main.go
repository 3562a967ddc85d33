package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	redigo "github.com/gomodule/redigo/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"linkpulse/internal/cache"
	"linkpulse/internal/config"
	"linkpulse/internal/handler"
	"linkpulse/internal/i18n"
	"linkpulse/internal/job"
	"linkpulse/internal/middleware"
	"linkpulse/internal/repository"
	"linkpulse/internal/service"
	"linkpulse/pkg/logging"
	"linkpulse/pkg/shortid"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, atomicLevel, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	logger.Info("Application started", zap.String("addr", cfg.Server.Addr))

	if err := run(cfg, logger, atomicLevel); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func run(cfg *config.Config, logger *zap.Logger, atomicLevel zap.AtomicLevel) error {
	db, err := repository.Open(cfg.DB, logger, atomicLevel)
	if err != nil {
		return err
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			logger.Warn("Database close failed", zap.Error(err))
		}
	}()

	var pool *redigo.Pool
	if cfg.Cache.Driver == config.CacheDriverRedis {
		pool = repository.NewRedisPool(cfg.Redis, logger)
	}
	resolutionBackend, err := cache.Open(cfg.Cache, pool, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := resolutionBackend.Close(); err != nil {
			logger.Warn("Cache close failed", zap.Error(err))
		}
	}()
	resolution := cache.NewResolutionCache(resolutionBackend, cfg.Cache.Prefix, cfg.Cache.TTL, logger)

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer func() { _ = rdb.Close() }()
		limiter = middleware.NewRedisLimiter(rdb)
	}

	links := repository.NewLinkRepository(db)
	clicks := repository.NewClickRepository(db)
	users := repository.NewUserRepository(db)

	tracker := service.NewTracker(clicks, cfg.Tracking, logger)
	tracker.Start()

	shortener := service.NewShortener(links, shortid.New(cfg.Shortener.IDLength), cfg.Shortener.MaxAttempts, logger)
	redirector := service.NewRedirector(links, resolution, tracker, cfg.Tracking.CountPolicy, cfg.Server.RequestTimeout, logger)
	analytics := service.NewAnalytics(links, clicks, logger)
	auth := service.NewAuthService(users, cfg.Auth, logger)

	scheduler, err := job.NewScheduler(cfg.Stats.RollupCron, job.NewRollupJob(analytics, 0, logger), logger)
	if err != nil {
		return err
	}
	scheduler.Start()

	translator, err := i18n.New(cfg.I18n.DefaultLang)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := handler.NewRouter(handler.Handlers{
		ShortLink: handler.NewShortLinkHandler(shortener, service.NewLinkManager(links, resolution, logger), service.NewHTMLRewriter(shortener, logger), cfg.Server.BaseURL, logger),
		Redirect:  handler.NewRedirectHandler(redirector),
		Analytics: handler.NewAnalyticsHandler(analytics),
		Auth:      handler.NewAuthHandler(auth, cfg.Auth),
		Health:    handler.NewHealthHandler(db, resolutionBackend, cfg.Cache.Driver),
	}, handler.RouterOptions{
		TrustedProxies: cfg.Server.TrustedProxies,
		Translator:     translator,
		Authenticator:  auth,
		Limiter:        limiter,
		RateLimit:      cfg.RateLimit,
		KeyPrefix:      cfg.Cache.Prefix,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running on " + cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	serveErr := awaitShutdown(quit, serverErr, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 等待正在执行的汇总任务
	<-scheduler.Stop().Done()

	// 请求全部结束后再排空访问事件队列
	if err := tracker.Close(ctx); err != nil {
		logger.Error("Click tracker did not drain in time", zap.Error(err), zap.Int64("dropped", tracker.Dropped()))
	}
	// 监听失败时以非零状态退出
	return serveErr
}

// awaitShutdown 阻塞到收到信号或 HTTP 服务退出，返回服务的错误（信号触发时为 nil）
func awaitShutdown(quit <-chan os.Signal, serverErr <-chan error, logger *zap.Logger) error {
	select {
	case sig := <-quit:
		logger.Info("Shutting down server...", zap.String("signal", sig.String()))
		return nil
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		return err
	}
}
