package watching

import (
	"context"
	"time"

	"github.com/smysle/dramabox-web/internal/database/repository"
)

// DatabaseBackend MySQL 存储
type DatabaseBackend struct {
	repo *repository.WatchStateRepository
}

// NewDatabaseBackend 创建数据库存储
func NewDatabaseBackend(repo *repository.WatchStateRepository) *DatabaseBackend {
	return &DatabaseBackend{repo: repo}
}

func (d *DatabaseBackend) Get(ctx context.Context, key string) (string, bool, error) {
	state, err := d.repo.Get(ctx, key)
	if err != nil || state == nil {
		return "", false, err
	}
	return state.Value, true, nil
}

func (d *DatabaseBackend) Set(ctx context.Context, key, value string) error {
	return d.repo.Save(ctx, key, value)
}

func (d *DatabaseBackend) Delete(ctx context.Context, key string) error {
	return d.repo.Delete(ctx, key)
}

// Prune 删除 before 之前没有更新过的观看者
func (d *DatabaseBackend) Prune(ctx context.Context, before time.Time) (int64, error) {
	return d.repo.DeleteOlderThan(ctx, before)
}
