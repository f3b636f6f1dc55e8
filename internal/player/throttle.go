package player

import (
	"sync"
	"time"
)

// DefaultWindow 进度回调的最小间隔
const DefaultWindow = 4 * time.Second

// Throttle 前沿节流：窗口外的第一次调用立即放行，窗口内的调用丢弃
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	fired  bool
}

// NewThrottle 创建节流器
func NewThrottle(window time.Duration) *Throttle {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Throttle{window: window}
}

// Allow 判断 now 时刻是否放行
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired && now.Sub(t.last) < t.window {
		return false
	}
	t.last = now
	t.fired = true
	return true
}

// Reset 清除状态，下一次调用必定放行
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.fired = false
	t.last = time.Time{}
	t.mu.Unlock()
}
