package web

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/metrics"
	"github.com/smysle/dramabox-web/internal/player"
	"github.com/smysle/dramabox-web/internal/watching"
)

// writeSlack 服务端写入窗口相对播放器窗口的余量
const writeSlack = time.Second

// ProgressRequest 播放器上报的进度
type ProgressRequest struct {
	BookID       string  `json:"bookId"`
	BookName     string  `json:"bookName"`
	Cover        string  `json:"cover"`
	ChapterID    string  `json:"chapterId"`
	ChapterIndex int     `json:"chapterIndex"`
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
}

// saveProgress 写入继续观看，同一观看者同一部剧按窗口节流
func (s *Server) saveProgress(c *fiber.Ctx) error {
	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.ProgressWritesTotal.WithLabelValues("rejected").Inc()
		return fiber.NewError(fiber.StatusBadRequest, "无效的请求体")
	}
	req.BookID = catalog.CleanBookID(req.BookID)
	if req.BookID == "" || req.ChapterID == "" {
		metrics.ProgressWritesTotal.WithLabelValues("rejected").Inc()
		return fiber.NewError(fiber.StatusBadRequest, "bookId 和 chapterId 不能为空")
	}

	store := s.store(c)
	if !store.Available() {
		metrics.ProgressWritesTotal.WithLabelValues("rejected").Inc()
		return c.JSON(fiber.Map{"saved": false})
	}

	if !s.throttleFor(viewerID(c) + "|" + req.BookID).Allow(s.now()) {
		metrics.ProgressWritesTotal.WithLabelValues("throttled").Inc()
		return c.JSON(fiber.Map{"saved": false})
	}

	entry := watching.Entry{
		BookID:       req.BookID,
		BookName:     req.BookName,
		Cover:        req.Cover,
		ChapterID:    req.ChapterID,
		ChapterIndex: req.ChapterIndex,
		PositionSec:  nonNegative(req.CurrentTime),
	}
	if d := nonNegative(req.Duration); d > 0 {
		entry.DurationSec = d
	}
	store.Upsert(c.UserContext(), entry)

	metrics.ProgressWritesTotal.WithLabelValues("saved").Inc()
	return c.JSON(fiber.Map{"saved": true})
}

// throttleFor 取出或创建节流器，长时间不用的会被 go-cache 清掉
func (s *Server) throttleFor(key string) *player.Throttle {
	if v, ok := s.throttles.Get(key); ok {
		return v.(*player.Throttle)
	}
	th := player.NewThrottle(s.writeWindow())
	if err := s.throttles.Add(key, th, cache.DefaultExpiration); err != nil {
		// 并发创建时用已存在的那个
		if v, ok := s.throttles.Get(key); ok {
			return v.(*player.Throttle)
		}
	}
	return th
}

// writeWindow 服务端写入窗口，比播放器的上报窗口短一点，网络抖动提前到达的上报不会被丢掉
func (s *Server) writeWindow() time.Duration {
	w := s.progressWindow()
	if w > 2*writeSlack {
		return w - writeSlack
	}
	return w / 2
}

// listContinueWatching 当前观看者的继续观看列表
func (s *Server) listContinueWatching(c *fiber.Ctx) error {
	store := s.store(c)
	return c.JSON(fiber.Map{
		"available": store.Available(),
		"items":     store.ReadAll(c.UserContext()),
	})
}

// clearContinueWatching 清空（API）
func (s *Server) clearContinueWatching(c *fiber.Ctx) error {
	s.store(c).Clear(c.UserContext())
	return c.JSON(fiber.Map{"cleared": true})
}

// clearContinueWatchingForm 清空（首页表单）
func (s *Server) clearContinueWatchingForm(c *fiber.Ctx) error {
	s.store(c).Clear(c.UserContext())
	return c.Redirect("/", fiber.StatusSeeOther)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
