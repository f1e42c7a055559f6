package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// DailyTaskRepository 每日任务仓储接口
type DailyTaskRepository interface {
	Create(ctx context.Context, task *model.DailyTaskModel) error
	FindByID(ctx context.Context, id string) (*model.DailyTaskModel, error)
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.DailyTaskModel, error)
	FindByFilter(ctx context.Context, filter *DailyTaskFilter) ([]*model.DailyTaskModel, error)
	UpdateDecision(ctx context.Context, id string, decision *TaskDecision) (bool, error)
	CountByStatus(ctx context.Context, from, to *time.Time) (map[string]int64, error)
}

// DailyTaskFilter 每日任务查询过滤器
// From 包含, To 不包含
type DailyTaskFilter struct {
	EmployeeID     *string
	ApprovalStatus *string
	From           *time.Time
	To             *time.Time
}

// TaskDecision 审批结论,只更新审批相关字段
type TaskDecision struct {
	ApprovalStatus   string
	ApprovedBy       string
	ApprovedAt       time.Time
	ManagerRemarks   string
	ManagerComplains string
	// OnlyPending 为 true 时只更新仍处于 pending 的任务
	OnlyPending bool
}

// dailyTaskRepository 每日任务仓储实现
type dailyTaskRepository struct {
	db *gorm.DB
}

// NewDailyTaskRepository 创建每日任务仓储
func NewDailyTaskRepository(db *gorm.DB) DailyTaskRepository {
	return &dailyTaskRepository{db: db}
}

// Create 新建每日任务
func (r *dailyTaskRepository) Create(ctx context.Context, task *model.DailyTaskModel) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID 根据 ID 查找每日任务
func (r *dailyTaskRepository) FindByID(ctx context.Context, id string) (*model.DailyTaskModel, error) {
	var task model.DailyTaskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByEmployeeAndDate 查找员工某天的任务
func (r *dailyTaskRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.DailyTaskModel, error) {
	var task model.DailyTaskModel
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByFilter 根据过滤器查找任务,按日期倒序
func (r *dailyTaskRepository) FindByFilter(ctx context.Context, filter *DailyTaskFilter) ([]*model.DailyTaskModel, error) {
	var tasks []*model.DailyTaskModel
	query := r.db.WithContext(ctx).Model(&model.DailyTaskModel{})

	if filter != nil {
		if filter.EmployeeID != nil {
			query = query.Where("employee_id = ?", *filter.EmployeeID)
		}
		if filter.ApprovalStatus != nil {
			query = query.Where("approval_status = ?", *filter.ApprovalStatus)
		}
		if filter.From != nil {
			query = query.Where("date >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("date < ?", *filter.To)
		}
	}

	err := query.Order("date DESC").Find(&tasks).Error
	return tasks, err
}

// UpdateDecision 写入审批结论,返回是否有记录被更新
func (r *dailyTaskRepository) UpdateDecision(ctx context.Context, id string, decision *TaskDecision) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.DailyTaskModel{}).Where("id = ?", id)
	if decision.OnlyPending {
		query = query.Where("approval_status = ?", model.ApprovalStatusPending)
	}

	result := query.Updates(map[string]interface{}{
		"approval_status":   decision.ApprovalStatus,
		"approved_by":       decision.ApprovedBy,
		"approved_at":       decision.ApprovedAt,
		"manager_remarks":   decision.ManagerRemarks,
		"manager_complains": decision.ManagerComplains,
		"updated_at":        decision.ApprovedAt,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountByStatus 按审批状态统计任务数
func (r *dailyTaskRepository) CountByStatus(ctx context.Context, from, to *time.Time) (map[string]int64, error) {
	var rows []struct {
		ApprovalStatus string
		Count          int64
	}

	query := r.db.WithContext(ctx).Model(&model.DailyTaskModel{})
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date < ?", *to)
	}

	if err := query.Select("approval_status, COUNT(*) as count").Group("approval_status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ApprovalStatus] = row.Count
	}
	return counts, nil
}
