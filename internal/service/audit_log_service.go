package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
)

// 审计动作
const (
	ActionCheckIn       = "check_in"
	ActionCheckOut      = "check_out"
	ActionCreateTask    = "create_task"
	ActionApproveTask   = "approve_task"
	ActionCreateSheet   = "create_sheet"
	ActionDeleteSheet   = "delete_sheet"
	ActionAddEntry      = "add_entry"
	ActionUpdateEntry   = "update_entry"
	ActionDeleteEntry   = "delete_entry"
	ActionCreateBackup  = "create_backup"
	ActionDeleteBackup  = "delete_backup"
	ActionRestoreBackup = "restore_backup"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	ListForResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
	List(ctx context.Context, filter repository.AuditLogFilter) ([]*model.AuditLogModel, error)
}

// 审计日志单次查询条数
const (
	DefaultAuditLogLimit = 100
	MaxAuditLogLimit     = 500
)

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
	clock     Clock
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository, opts ...Option) AuditLogService {
	o := buildOptions(opts)
	return &auditLogService{
		auditRepo: auditRepo,
		clock:     o.clock,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	info := RequestInfoFrom(ctx)
	if userID == "" {
		userID = "anonymous"
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    info.RequestID,
		IP:           info.IP,
		UserAgent:    info.UserAgent,
		Details:      detailsJSON,
		CreatedAt:    s.clock(),
	}
	if err := auditLog.Validate(); err != nil {
		return err
	}

	return s.auditRepo.Create(ctx, auditLog)
}

// ListForResource 查询资源的审计日志
func (s *auditLogService) ListForResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.List(ctx, repository.AuditLogFilter{ResourceType: resourceType, ResourceID: resourceID})
}

// List 按条件查询审计日志,条数默认 100,最多 500
func (s *auditLogService) List(ctx context.Context, filter repository.AuditLogFilter) ([]*model.AuditLogModel, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, NewValidationError("from must not be after to")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultAuditLogLimit
	case filter.Limit > MaxAuditLogLimit:
		filter.Limit = MaxAuditLogLimit
	}

	logs, err := s.auditRepo.Find(ctx, filter)
	if err != nil {
		return nil, NewStorageError("failed to list audit logs", err)
	}
	return logs, nil
}
