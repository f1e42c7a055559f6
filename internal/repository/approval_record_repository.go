package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// ApproverDecisionCount 某审批人在某结果上的决定次数
type ApproverDecisionCount struct {
	Approver string
	Result   string
	Count    int64
}

// ApprovalRecordRepository 审批记录仓储接口
// 审批记录只追加,不修改
type ApprovalRecordRepository interface {
	Create(ctx context.Context, record *model.ApprovalRecordModel) error
	FindByTaskID(ctx context.Context, taskID string) ([]*model.ApprovalRecordModel, error)
	CountByApprover(ctx context.Context, from, to *time.Time) ([]ApproverDecisionCount, error)
}

// approvalRecordRepository 审批记录仓储实现
type approvalRecordRepository struct {
	db *gorm.DB
}

// NewApprovalRecordRepository 创建审批记录仓储
func NewApprovalRecordRepository(db *gorm.DB) ApprovalRecordRepository {
	return &approvalRecordRepository{db: db}
}

// Create 追加审批记录
func (r *approvalRecordRepository) Create(ctx context.Context, record *model.ApprovalRecordModel) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByTaskID 按决定顺序返回任务的审批历史
func (r *approvalRecordRepository) FindByTaskID(ctx context.Context, taskID string) ([]*model.ApprovalRecordModel, error) {
	var records []*model.ApprovalRecordModel
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&records).Error
	return records, err
}

// CountByApprover 按审批人和结果统计决定次数,时间窗口为 [from, to)
func (r *approvalRecordRepository) CountByApprover(ctx context.Context, from, to *time.Time) ([]ApproverDecisionCount, error) {
	query := r.db.WithContext(ctx).Model(&model.ApprovalRecordModel{})
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var counts []ApproverDecisionCount
	err := query.
		Select("approver, result, COUNT(*) AS count").
		Group("approver, result").
		Order("approver ASC").
		Scan(&counts).Error
	return counts, err
}
