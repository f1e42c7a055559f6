package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// AuditLogFilter 审计日志查询条件,零值字段不参与过滤
type AuditLogFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Limit        int
}

// AuditLogRepository 审计日志仓储接口
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLogModel) error
	Find(ctx context.Context, filter AuditLogFilter) ([]*model.AuditLogModel, error)
}

// auditLogRepository 审计日志仓储实现
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create 写入审计日志
func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLogModel) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// Find 按条件查询审计日志,最新的在前
func (r *auditLogRepository) Find(ctx context.Context, filter AuditLogFilter) ([]*model.AuditLogModel, error) {
	query := r.db.WithContext(ctx).Model(&model.AuditLogModel{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var logs []*model.AuditLogModel
	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, err
}
