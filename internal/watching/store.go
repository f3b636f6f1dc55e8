// Package watching 继续观看记录
package watching

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smysle/dramabox-web/pkg/logger"
)

const (
	// KeyPrefix 持久化键名前缀
	KeyPrefix = "dramabox_continue_watching_v1"
	// DefaultMaxItems 最多保留的记录数
	DefaultMaxItems = 20
)

// Entry 单部剧的观看进度
type Entry struct {
	BookID       string  `json:"bookId"`
	BookName     string  `json:"bookName"`
	Cover        string  `json:"cover"`
	ChapterID    string  `json:"chapterId"`
	ChapterIndex int     `json:"chapterIndex"`
	PositionSec  float64 `json:"positionSec"`
	DurationSec  float64 `json:"durationSec,omitempty"`
	UpdatedAt    int64   `json:"updatedAt"` // 毫秒时间戳
}

// Percent 观看百分比，时长未知时为 0
func (e Entry) Percent() float64 {
	if e.DurationSec <= 0 {
		return 0
	}
	p := e.PositionSec / e.DurationSec * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Backend 键值存储
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pruner 支持按时间清理的存储
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Store 一个观看者的继续观看列表。
// backend 为 nil 表示存储不可用，所有操作都是空操作。
type Store struct {
	backend  Backend
	key      string
	maxItems int
	now      func() time.Time
	log      zerolog.Logger
}

// Option Store 可选参数
type Option func(*Store)

// WithMaxItems 设置上限
func WithMaxItems(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore 创建 Store
func NewStore(backend Backend, key string, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		key:      key,
		maxItems: DefaultMaxItems,
		now:      time.Now,
		log:      logger.With("watching"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyFor 观看者的存储键
func KeyFor(viewerID string) string {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return KeyPrefix
	}
	return KeyPrefix + ":" + viewerID
}

// Available 存储是否可用
func (s *Store) Available() bool {
	return s != nil && s.backend != nil
}

// ReadAll 读取全部记录；不存在或内容损坏时返回空列表
func (s *Store) ReadAll(ctx context.Context) []Entry {
	if !s.Available() {
		return []Entry{}
	}

	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("读取继续观看失败")
		return []Entry{}
	}
	if !ok || raw == "" {
		return []Entry{}
	}

	var items []Entry
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		s.log.Debug().Str("key", s.key).Msg("继续观看数据损坏，按空处理")
		return []Entry{}
	}
	return items
}

// Find 查找某部剧的记录
func (s *Store) Find(ctx context.Context, bookID string) (Entry, bool) {
	for _, e := range s.ReadAll(ctx) {
		if e.BookID == bookID {
			return e, true
		}
	}
	return Entry{}, false
}

// Upsert 写入一条记录：同一部剧只保留最新一条，放在最前面，超出上限的丢弃
func (s *Store) Upsert(ctx context.Context, entry Entry) []Entry {
	if !s.Available() {
		return []Entry{}
	}
	if entry.UpdatedAt == 0 {
		entry.UpdatedAt = s.now().UnixMilli()
	}

	items := s.ReadAll(ctx)
	next := make([]Entry, 0, len(items)+1)
	next = append(next, entry)
	for _, e := range items {
		if e.BookID != entry.BookID {
			next = append(next, e)
		}
	}
	if len(next) > s.maxItems {
		next = next[:s.maxItems]
	}

	data, err := json.Marshal(next)
	if err != nil {
		s.log.Warn().Err(err).Msg("序列化继续观看失败")
		return next
	}
	if err := s.backend.Set(ctx, s.key, string(data)); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("保存继续观看失败")
	}
	return next
}

// Clear 清空列表
func (s *Store) Clear(ctx context.Context) {
	if !s.Available() {
		return
	}
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("清空继续观看失败")
	}
}
