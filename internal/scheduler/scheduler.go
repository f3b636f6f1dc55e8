// Package scheduler 定时任务调度
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/config"
	"github.com/smysle/dramabox-web/internal/metrics"
	"github.com/smysle/dramabox-web/internal/watching"
	"github.com/smysle/dramabox-web/pkg/logger"
	"github.com/smysle/dramabox-web/pkg/utils"
)

const (
	// TaskPrune 清理过期的继续观看记录
	TaskPrune = "prune_watch_state"
	// TaskProbe 探测上游 API
	TaskProbe = "probe_upstream"

	probeTimeout = 10 * time.Second
	pruneTimeout = time.Minute
)

// Prober 探测上游是否可用
type Prober interface {
	ForYou(ctx context.Context) ([]catalog.Drama, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron    *gocron.Scheduler
	cfg     *config.Config
	backend watching.Backend
	prober  Prober
	now     func() time.Time
}

// New 创建调度器。backend 为 nil 或不支持清理时跳过清理任务。
func New(cfg *config.Config, backend watching.Backend, prober Prober) *Scheduler {
	s := gocron.NewScheduler(utils.LoadLocation(cfg.Timezone))
	s.SetMaxConcurrentJobs(2, gocron.RescheduleMode)

	return &Scheduler{
		cron:    s,
		cfg:     cfg,
		backend: backend,
		prober:  prober,
		now:     time.Now,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info().Msg("启动定时任务调度器")

	// 注册定时任务
	s.registerJobs()

	// 异步启动
	s.cron.StartAsync()
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	logger.Info().Msg("停止定时任务调度器")
	s.cron.Stop()
}

// registerJobs 注册所有定时任务
func (s *Scheduler) registerJobs() {
	cfg := s.cfg.Scheduler

	// 清理继续观看 - 每天凌晨 4 点
	if cfg.PruneWatchState {
		if _, ok := s.backend.(watching.Pruner); ok {
			if _, err := s.cron.Every(1).Day().At("04:00").Tag(TaskPrune).Do(s.pruneWatchState); err != nil {
				logger.Error().Err(err).Msg("注册清理任务失败")
			} else {
				logger.Info().Msg("已注册: 清理继续观看任务 (每天 04:00)")
			}
		} else {
			logger.Info().Str("driver", s.cfg.Storage.Driver).Msg("存储不支持按时间清理，跳过清理任务")
		}
	}

	// 上游探测
	if cfg.ProbeUpstream && s.prober != nil {
		interval := cfg.ProbeInterval
		if interval <= 0 {
			interval = 5
		}
		if _, err := s.cron.Every(interval).Minutes().Tag(TaskProbe).Do(s.probeUpstream); err != nil {
			logger.Error().Err(err).Msg("注册探测任务失败")
		} else {
			logger.Info().Int("minutes", interval).Msg("已注册: 上游探测任务")
		}
	}
}

// pruneWatchState 删除超过保留天数没有更新的记录
func (s *Scheduler) pruneWatchState() {
	pruner, ok := s.backend.(watching.Pruner)
	if !ok {
		return
	}
	days := s.cfg.Storage.RetentionDays
	if days <= 0 {
		return
	}

	logger.Info().Msg("执行定时任务: 清理继续观看")

	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	before := s.now().AddDate(0, 0, -days)
	deleted, err := pruner.Prune(ctx, before)
	if err != nil {
		logger.Error().Err(err).Msg("清理继续观看失败")
		return
	}
	metrics.WatchStatePrunedTotal.Add(float64(deleted))
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Time("before", before).Msg("已清理过期的继续观看记录")
	}
}

// probeUpstream 请求一次 foryou 接口，结果写入 dramabox_upstream_up
func (s *Scheduler) probeUpstream() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if _, err := s.prober.ForYou(ctx); err != nil {
		metrics.UpstreamUp.Set(0)
		logger.Warn().Err(err).Msg("上游探测失败")
		return
	}
	metrics.UpstreamUp.Set(1)
	logger.Debug().Msg("上游探测成功")
}

// RunNow 立即执行指定任务（用于调试）
func (s *Scheduler) RunNow(taskName string) error {
	switch taskName {
	case TaskPrune:
		s.pruneWatchState()
	case TaskProbe:
		if s.prober == nil {
			return fmt.Errorf("未配置上游探测")
		}
		s.probeUpstream()
	default:
		logger.Warn().Str("task", taskName).Msg("未知任务")
		return fmt.Errorf("未知任务: %s", taskName)
	}
	return nil
}
