// Package player 播放器生命周期：绑定视频源、续播定位、进度上报
package player

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smysle/dramabox-web/pkg/logger"
)

const (
	// HLSMime HLS 清单的 MIME 类型
	HLSMime = "application/vnd.apple.mpegurl"
	// MP4Mime 单文件视频
	MP4Mime = "video/mp4"
)

var (
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("player: invalid state")
	// ErrNoDecoder 需要 HLS 解码器但没有提供
	ErrNoDecoder = errors.New("player: segmented source needs a decoder")
)

// State 播放器状态
type State int

const (
	Idle State = iota
	SourceBound
	MetadataLoaded
	Playing
	Paused
	Unmounted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SourceBound:
		return "source_bound"
	case MetadataLoaded:
		return "metadata_loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Unmounted:
		return "unmounted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MediaElement 视频元素
type MediaElement interface {
	CanPlayType(mime string) bool
	SetSource(url string)
	Seek(sec float64) error
	CurrentTime() float64
	Duration() float64
}

// Decoder 分片流解码会话（浏览器里对应 hls.js）
type Decoder interface {
	Load(src string) error
	Attach(el MediaElement) error
	Destroy()
}

// DecoderFactory 创建解码会话
type DecoderFactory func() Decoder

// Clock 时间源
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Progress 进度回调参数
type Progress struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// ProgressFunc 进度回调
type ProgressFunc func(Progress)

// Plan 视频源的播放方式
type Plan struct {
	Src       string
	Segmented bool
	MIME      string
}

// PlanSource 根据地址判断是否为 HLS
func PlanSource(src string) Plan {
	if strings.Contains(src, ".m3u8") {
		return Plan{Src: src, Segmented: true, MIME: HLSMime}
	}
	return Plan{Src: src, MIME: MP4Mime}
}

// ShouldSeek 续播位置是否需要定位
func ShouldSeek(startAt float64) bool {
	return startAt > 1 && !math.IsInf(startAt, 0) && !math.IsNaN(startAt)
}

// Session 一次挂载的播放会话
type Session struct {
	el         MediaElement
	newDecoder DecoderFactory
	clock      Clock
	throttle   *Throttle
	onProgress ProgressFunc

	state   State
	plan    Plan
	startAt float64
	decoder Decoder
	log     zerolog.Logger
}

// Option 会话参数
type Option func(*Session)

// WithDecoderFactory 设置 HLS 解码器
func WithDecoderFactory(f DecoderFactory) Option {
	return func(s *Session) { s.newDecoder = f }
}

// WithClock 注入时钟
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithProgress 设置进度回调
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) { s.onProgress = fn }
}

// WithWindow 设置进度节流窗口
func WithWindow(d time.Duration) Option {
	return func(s *Session) { s.throttle = NewThrottle(d) }
}

// NewSession 创建会话
func NewSession(el MediaElement, opts ...Option) *Session {
	s := &Session{
		el:       el,
		clock:    realClock{},
		throttle: NewThrottle(DefaultWindow),
		state:    Idle,
		log:      logger.With("player"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State 当前状态
func (s *Session) State() State { return s.state }

// Plan 绑定时选择的播放方式
func (s *Session) Plan() Plan { return s.plan }

// UsesDecoder 是否挂了 HLS 解码器
func (s *Session) UsesDecoder() bool { return s.decoder != nil }

// Bind 绑定视频源。HLS 地址且元素不能原生播放时挂载解码器，否则直接设置 src。
func (s *Session) Bind(src string, startAt float64) error {
	if s.state != Idle {
		return fmt.Errorf("bind in %s: %w", s.state, ErrInvalidState)
	}

	plan := PlanSource(src)
	if plan.Segmented && !s.el.CanPlayType(HLSMime) {
		if s.newDecoder == nil {
			return ErrNoDecoder
		}
		dec := s.newDecoder()
		if err := dec.Load(src); err != nil {
			dec.Destroy()
			return fmt.Errorf("load source: %w", err)
		}
		if err := dec.Attach(s.el); err != nil {
			dec.Destroy()
			return fmt.Errorf("attach decoder: %w", err)
		}
		s.decoder = dec
	} else {
		s.el.SetSource(src)
	}

	s.plan = plan
	s.startAt = startAt
	s.state = SourceBound
	return nil
}

// OnLoadedMetadata 元数据加载完成，按需定位到续播位置
func (s *Session) OnLoadedMetadata() {
	if s.state != SourceBound {
		return
	}
	if ShouldSeek(s.startAt) {
		if err := s.el.Seek(s.startAt); err != nil {
			s.log.Debug().Err(err).Float64("startAt", s.startAt).Msg("续播定位失败，忽略")
		}
	}
	s.state = MetadataLoaded
}

// Play 开始播放
func (s *Session) Play() {
	if s.active() {
		s.state = Playing
	}
}

// Pause 暂停
func (s *Session) Pause() {
	if s.active() {
		s.state = Paused
	}
}

// OnTimeUpdate 播放时间变化，节流后回调进度
func (s *Session) OnTimeUpdate() {
	if s.state == Idle || s.state == Unmounted || s.onProgress == nil {
		return
	}
	if !s.throttle.Allow(s.clock.Now()) {
		return
	}
	s.onProgress(Progress{
		CurrentTime: finiteOr(s.el.CurrentTime(), 0),
		Duration:    finiteOr(s.el.Duration(), 0),
	})
}

// Close 卸载：停止回调并释放解码器，可重复调用
func (s *Session) Close() {
	if s.state == Unmounted {
		return
	}
	if s.decoder != nil {
		s.decoder.Destroy()
		s.decoder = nil
	}
	s.onProgress = nil
	s.state = Unmounted
}

func (s *Session) active() bool {
	return s.state == MetadataLoaded || s.state == Playing || s.state == Paused
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
