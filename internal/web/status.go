package web

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().In(s.loc).Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

// StatusResponse 详细状态响应
type StatusResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
	System  SystemInfo    `json:"system"`
	Storage StorageStatus `json:"storage"`
	Catalog CatalogStatus `json:"catalog"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     string `json:"mem_alloc"`
}

// StorageStatus 继续观看存储状态
type StorageStatus struct {
	Driver    string `json:"driver"`
	Available bool   `json:"available"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
}

// CatalogStatus 上游配置
type CatalogStatus struct {
	BaseURL  string `json:"base_url"`
	Provider string `json:"provider"`
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// detailedStatus 详细状态
func (s *Server) detailedStatus(c *fiber.Ctx) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	storage := StorageStatus{
		Driver:    s.cfg.Storage.Driver,
		Available: s.backend != nil,
		Healthy:   s.backend != nil,
	}
	if hc, ok := s.backend.(healthChecker); ok {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := hc.HealthCheck(ctx); err != nil {
			storage.Healthy = false
			storage.Error = err.Error()
		}
	}

	status := "ok"
	if storage.Available && !storage.Healthy {
		status = "degraded"
	}

	return c.JSON(StatusResponse{
		Status:  status,
		Version: "1.0.0",
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		System: SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     fmt.Sprintf("%.2f MB", float64(memStats.Alloc)/1024/1024),
		},
		Storage: storage,
		Catalog: CatalogStatus{
			BaseURL:  s.cfg.Catalog.BaseURL,
			Provider: s.cfg.Catalog.Provider,
		},
	})
}

// metricsHandler Prometheus 指标
func metricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
