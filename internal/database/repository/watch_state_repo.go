// Package repository 继续观看数据仓库
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smysle/dramabox-web/internal/database"
	"github.com/smysle/dramabox-web/internal/database/models"
)

// WatchStateRepository 继续观看仓库
type WatchStateRepository struct {
	db *gorm.DB
}

// NewWatchStateRepository 使用全局连接创建仓库
func NewWatchStateRepository() *WatchStateRepository {
	return &WatchStateRepository{db: database.GetDB()}
}

// NewWatchStateRepositoryWithDB 使用指定连接创建仓库
func NewWatchStateRepositoryWithDB(db *gorm.DB) *WatchStateRepository {
	return &WatchStateRepository{db: db}
}

// Get 按键读取，不存在时返回 nil
func (r *WatchStateRepository) Get(ctx context.Context, key string) (*models.WatchState, error) {
	var state models.WatchState
	err := r.db.WithContext(ctx).Where("state_key = ?", key).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save 插入或覆盖
func (r *WatchStateRepository) Save(ctx context.Context, key, value string) error {
	state := models.WatchState{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state_value", "updated_at"}),
	}).Create(&state).Error
}

// Delete 删除一个观看者的记录
func (r *WatchStateRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("state_key = ?", key).Delete(&models.WatchState{}).Error
}

// DeleteOlderThan 删除长时间未更新的记录
func (r *WatchStateRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&models.WatchState{})
	return result.RowsAffected, result.Error
}
