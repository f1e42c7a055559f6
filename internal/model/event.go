package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// 事件投递状态
const (
	EventStatusPending = "pending"
	EventStatusSuccess = "success"
	EventStatusFailed  = "failed"
)

// EventModel 通知事件数据模型(发件箱)
type EventModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ResourceType string         `gorm:"type:varchar(32);not null" json:"resource_type"`
	ResourceID   string         `gorm:"type:varchar(64);not null;index" json:"resource_id"`
	Type         string         `gorm:"type:varchar(64);not null;index" json:"type"`
	Data         datatypes.JSON `gorm:"not null" json:"data"`
	Status       string         `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	RetryCount   int            `gorm:"default:0" json:"retry_count"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (EventModel) TableName() string {
	return "events"
}

// Validate 验证事件模型
func (em *EventModel) Validate() error {
	if em.ID == "" {
		return errors.New("event ID is required")
	}
	if em.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	if em.Type == "" {
		return errors.New("event type is required")
	}
	if len(em.Data) == 0 {
		return errors.New("event data is required")
	}
	if em.Status == "" {
		em.Status = EventStatusPending
	}
	return nil
}
