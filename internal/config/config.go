// Package config 配置管理模块
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingBaseURL 未配置上游 API 地址
var ErrMissingBaseURL = errors.New("config: missing API_BASE_URL")

// Config 全局配置结构
type Config struct {
	SiteName string `json:"site_name"`
	Timezone string `json:"timezone"`
	LogDir   string `json:"log_dir"`

	Catalog   CatalogConfig   `json:"catalog"`
	Web       WebConfig       `json:"web"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

// CatalogConfig 上游剧集 API 配置
type CatalogConfig struct {
	BaseURL    string  `json:"base_url"`
	Provider   string  `json:"provider"`
	Timeout    int     `json:"timeout"` // 秒
	RetryCount int     `json:"retry_count"`
	RateLimit  float64 `json:"rate_limit"` // 每秒请求数
	Burst      int     `json:"burst"`
	UserAgent  string  `json:"user_agent"`
}

// WebConfig Web 服务配置
type WebConfig struct {
	Host             string   `json:"host"`
	Port             int      `json:"port"`
	CookieName       string   `json:"cookie_name"`
	CookieMaxAgeDays int      `json:"cookie_max_age_days"`
	ProgressWindow   int      `json:"progress_window"` // 进度上报节流窗口，秒
	ImageHosts       []string `json:"image_hosts"`
}

// StorageConfig 继续观看存储配置
type StorageConfig struct {
	Driver        string         `json:"driver"` // memory / redis / mysql / none
	MaxItems      int            `json:"max_items"`
	RetentionDays int            `json:"retention_days"`
	Redis         RedisConfig    `json:"redis"`
	Database      DatabaseConfig `json:"database"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	PruneWatchState bool `json:"prune_watch_state"`
	ProbeUpstream   bool `json:"probe_upstream"`
	ProbeInterval   int  `json:"probe_interval"` // 分钟
}

// Load 加载配置：配置文件 -> .env -> 环境变量
func Load(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// 允许只用环境变量运行
		default:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	config.applyEnv(os.LookupEnv)
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Save 保存配置到文件（包含默认值和环境变量覆盖后的结果）
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	switch c.Storage.Driver {
	case "memory", "redis", "mysql", "none":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// applyEnv 环境变量覆盖配置文件
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("API_BASE_URL", &c.Catalog.BaseURL)
	str("API_PROVIDER", &c.Catalog.Provider)
	str("SITE_NAME", &c.SiteName)
	str("TZ_NAME", &c.Timezone)
	str("HOST", &c.Web.Host)
	num("PORT", &c.Web.Port)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("REDIS_ADDR", &c.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &c.Storage.Redis.Password)
	num("REDIS_DB", &c.Storage.Redis.DB)
	str("DB_HOST", &c.Storage.Database.Host)
	num("DB_PORT", &c.Storage.Database.Port)
	str("DB_USER", &c.Storage.Database.User)
	str("DB_PASSWORD", &c.Storage.Database.Password)
	str("DB_NAME", &c.Storage.Database.Name)

	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.SiteName == "" {
		c.SiteName = "DramaBox"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Jakarta"
	}
	if c.Catalog.Provider == "" {
		c.Catalog.Provider = "dramabox"
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 15
	}
	if c.Catalog.RetryCount == 0 {
		c.Catalog.RetryCount = 1
	}
	if c.Catalog.RateLimit == 0 {
		c.Catalog.RateLimit = 20
	}
	if c.Catalog.Burst == 0 {
		c.Catalog.Burst = 10
	}
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = "DramaboxWeb/1.0 Go"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 3000
	}
	if c.Web.CookieName == "" {
		c.Web.CookieName = "dbx_viewer"
	}
	if c.Web.CookieMaxAgeDays == 0 {
		c.Web.CookieMaxAgeDays = 365
	}
	if c.Web.ProgressWindow == 0 {
		c.Web.ProgressWindow = 4
	}
	if len(c.Web.ImageHosts) == 0 {
		c.Web.ImageHosts = []string{
			"hwztchapter.dramaboxdb.com",
			"thwztchapter.dramaboxdb.com",
			"thwztvideo.dramaboxdb.com",
			"hwztvideo.dramaboxdb.com",
			"dramaboxdb.com",
		}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxItems == 0 {
		c.Storage.MaxItems = 20
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 90
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Storage.Database.Port == 0 {
		c.Storage.Database.Port = 3306
	}
	if c.Scheduler.ProbeInterval == 0 {
		c.Scheduler.ProbeInterval = 5
	}
}

// Addr 监听地址
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// ImageHostAllowed 判断图片域名是否在白名单中
func (w WebConfig) ImageHostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, h := range w.ImageHosts {
		if host == strings.ToLower(h) {
			return true
		}
	}
	return false
}
