// Package models 数据模型 - 继续观看
package models

import (
	"time"
)

// WatchState 继续观看列表，一个观看者一行，Value 为 JSON 数组
type WatchState struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:191" json:"key"`
	Value     string    `gorm:"column:state_value;type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

// TableName 表名
func (WatchState) TableName() string {
	return "watch_states"
}
