// DramaBox Web - 短剧浏览与播放站点
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/config"
	"github.com/smysle/dramabox-web/internal/database"
	"github.com/smysle/dramabox-web/internal/database/repository"
	"github.com/smysle/dramabox-web/internal/scheduler"
	"github.com/smysle/dramabox-web/internal/watching"
	"github.com/smysle/dramabox-web/internal/web"
	"github.com/smysle/dramabox-web/pkg/logger"
)

var (
	configPath  = flag.String("config", "config.json", "配置文件路径")
	debug       = flag.Bool("debug", false, "调试模式")
	writeConfig = flag.String("write-config", "", "把合并后的配置写入该文件后退出")
)

func main() {
	flag.Parse()

	// 初始化日志
	logger.Init(logger.Options{Debug: *debug})
	logger.Info().Msg("DramaBox Web 启动中...")

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			logger.Fatal().Err(err).Str("path", *writeConfig).Msg("写入配置失败")
		}
		logger.Info().Str("path", *writeConfig).Msg("✅ 配置已写入")
		return
	}
	logger.Init(logger.Options{Debug: *debug, Timezone: cfg.Timezone, Dir: cfg.LogDir})
	logger.Info().Msg("✅ 配置加载完成")

	// 上游客户端
	client, err := catalog.NewClient(catalog.Options{
		BaseURL:    cfg.Catalog.BaseURL,
		Provider:   cfg.Catalog.Provider,
		Timeout:    time.Duration(cfg.Catalog.Timeout) * time.Second,
		RetryCount: cfg.Catalog.RetryCount,
		RateLimit:  cfg.Catalog.RateLimit,
		Burst:      cfg.Catalog.Burst,
		UserAgent:  cfg.Catalog.UserAgent,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化上游客户端失败")
	}
	logger.Info().Str("api", client.BaseURL()).Msg("✅ 上游客户端就绪")

	// 继续观看存储
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("初始化存储失败")
	}
	defer closeBackend()
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("✅ 存储初始化完成")

	// 定时任务
	sched := scheduler.New(cfg, backend, client)
	sched.Start()
	defer sched.Stop()

	// Web 服务
	webServer := web.New(cfg, web.Deps{Catalog: client, Backend: backend})
	go func() {
		if err := webServer.Start(); err != nil {
			logger.Error().Err(err).Msg("Web 服务启动失败")
		}
	}()

	logger.Info().Str("addr", cfg.Web.Addr()).Msg("🚀 DramaBox Web 启动成功!")

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务...")
	if err := webServer.Stop(); err != nil {
		logger.Warn().Err(err).Msg("关闭 Web 服务失败")
	}
	logger.Info().Msg("👋 再见!")
}

// openBackend 按配置选择存储，返回的 close 总是可调用
func openBackend(cfg *config.Config) (watching.Backend, func(), error) {
	noop := func() {}
	ttl := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour

	switch cfg.Storage.Driver {
	case "none":
		return nil, noop, nil
	case "memory":
		return watching.NewMemoryBackend(), noop, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rb, err := watching.DialRedis(ctx, watching.RedisConfig{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		}, ttl)
		if err != nil {
			return nil, noop, err
		}
		return rb, func() { _ = rb.Close() }, nil
	case "mysql":
		if err := database.Init(&cfg.Storage.Database); err != nil {
			return nil, noop, err
		}
		return watching.NewDatabaseBackend(repository.NewWatchStateRepository()), func() { _ = database.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
