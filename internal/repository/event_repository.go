package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// EventRepository 通知发件箱仓储接口
type EventRepository interface {
	Create(ctx context.Context, event *model.EventModel) error
	UpdateStatus(ctx context.Context, id string, status string, retryCount int, at time.Time) error
	FindPending(ctx context.Context, limit int) ([]*model.EventModel, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// eventRepository 发件箱仓储实现
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建发件箱仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create 写入新事件
func (r *eventRepository) Create(ctx context.Context, event *model.EventModel) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// UpdateStatus 只更新投递状态相关的列
func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status string, retryCount int, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": retryCount,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindPending 按写入顺序查找待投递事件,limit <= 0 时不限制
func (r *eventRepository) FindPending(ctx context.Context, limit int) ([]*model.EventModel, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", model.EventStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []*model.EventModel
	err := query.Find(&events).Error
	return events, err
}

// CountByStatus 统计各投递状态的事件数
func (r *eventRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.EventModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
