package watching

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend 进程内存储，重启后丢失
type MemoryBackend struct {
	cache *cache.Cache
}

// NewMemoryBackend 创建内存存储
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Len 当前键数量
func (m *MemoryBackend) Len() int {
	return m.cache.ItemCount()
}
