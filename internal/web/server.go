// Package web 页面渲染与播放进度 API
package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/config"
	"github.com/smysle/dramabox-web/internal/watching"
	pkglogger "github.com/smysle/dramabox-web/pkg/logger"
	"github.com/smysle/dramabox-web/pkg/utils"
)

// Catalog 页面用到的上游接口
type Catalog interface {
	ForYou(ctx context.Context) ([]catalog.Drama, error)
	Latest(ctx context.Context) ([]catalog.Drama, error)
	Trending(ctx context.Context) ([]catalog.Drama, error)
	PopularSearch(ctx context.Context) ([]catalog.Drama, error)
	Search(ctx context.Context, query string) ([]catalog.Drama, error)
	Detail(ctx context.Context, bookID string) (*catalog.Detail, error)
	AllEpisodes(ctx context.Context, bookID string) ([]catalog.Episode, error)
}

// Deps 服务依赖
type Deps struct {
	Catalog Catalog
	// Backend 为 nil 时继续观看功能不可用
	Backend watching.Backend
	// Images 图片代理用的 HTTP 客户端，为 nil 时自动创建
	Images *resty.Client
}

// Server Web 服务器
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	catalog   Catalog
	backend   watching.Backend
	images    *resty.Client
	throttles *cache.Cache
	loc       *time.Location
	startTime time.Time
	now       func() time.Time
	log       zerolog.Logger
}

// New 创建 Web 服务器
func New(cfg *config.Config, deps Deps) *Server {
	images := deps.Images
	if images == nil {
		images = resty.New().
			SetTimeout(10*time.Second).
			SetHeader("User-Agent", cfg.Catalog.UserAgent)
	}

	s := &Server{
		cfg:       cfg,
		catalog:   deps.Catalog,
		backend:   deps.Backend,
		images:    images,
		throttles: cache.New(10*time.Minute, 20*time.Minute),
		loc:       utils.LoadLocation(cfg.Timezone),
		startTime: time.Now(),
		now:       time.Now,
		log:       pkglogger.With("web"),
	}

	s.images.SetRedirectPolicy(s.imageRedirectPolicy())

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// 路由参数会被放进缓存和后台 goroutine
		Immutable:    true,
		ErrorHandler: s.errorHandler,
	})

	// 中间件
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(s.viewer)

	s.app = app
	s.registerRoutes()
	return s
}

// registerRoutes 注册路由
func (s *Server) registerRoutes() {
	// 页面
	s.app.Get("/", s.home)
	s.app.Get("/search", s.search)
	s.app.Get("/drama/:bookId", s.drama)
	s.app.Get("/watch/:bookId", s.watch)
	s.app.Post("/continue-watching/clear", s.clearContinueWatchingForm)

	// 图片
	s.app.Get("/img/cover/:bookId", s.coverImage)
	s.app.Get("/img/proxy", s.proxyImage)

	// API
	api := s.app.Group("/api")
	api.Post("/progress", s.saveProgress)
	api.Get("/continue-watching", s.listContinueWatching)
	api.Delete("/continue-watching", s.clearContinueWatching)

	// 运维
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/status", s.detailedStatus)
	s.app.Get("/metrics", metricsHandler())
}

// App 返回底层 fiber 应用
func (s *Server) App() *fiber.App { return s.app }

// Start 启动服务器
func (s *Server) Start() error {
	addr := s.cfg.Web.Addr()
	s.log.Info().Str("addr", addr).Msg("【Web服务】启动中...")
	return s.app.Listen(addr)
}

// Stop 停止服务器
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// errorHandler API 返回 JSON，页面返回错误页
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("请求处理失败")
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	heading := "Terjadi kesalahan"
	if code == fiber.StatusNotFound {
		heading = "Halaman tidak ditemukan"
	}
	return s.render(c, code, "notice", heading, notice{
		Heading:   heading,
		Message:   err.Error(),
		Tone:      toneError,
		BackHref:  "/",
		BackLabel: "Kembali ke Home",
	})
}
