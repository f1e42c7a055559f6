package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 支持的日期格式
var taskDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DailyTaskService 每日任务服务接口
type DailyTaskService interface {
	CreateTask(ctx context.Context, req *CreateDailyTaskRequest) (*model.DailyTaskModel, error)
	ApproveTask(ctx context.Context, req *ApproveDailyTaskRequest) (*model.DailyTaskModel, error)
	GetTask(ctx context.Context, id string) (*model.DailyTaskModel, error)
	ListTasksForEmployee(ctx context.Context, employeeID string, month, year int) ([]*model.DailyTaskModel, error)
	ListPendingTasks(ctx context.Context) ([]*model.DailyTaskModel, error)
	ApprovalHistory(ctx context.Context, taskID string) ([]*model.ApprovalRecordModel, error)
}

// TaskRemarksInput 耗时差异说明
// 数值字段用指针区分缺省与 0
type TaskRemarksInput struct {
	TimeTaken    *float64 `json:"time_taken" validate:"required"`
	TimeExpected *float64 `json:"time_expected" validate:"required"`
	Reason       string   `json:"reason" validate:"required"`
}

// CreateDailyTaskRequest 提交每日任务请求
type CreateDailyTaskRequest struct {
	EmployeeID   string            `json:"employee_id" validate:"required"`
	Date         string            `json:"date" validate:"required" example:"2024-03-05"`
	Project      string            `json:"project" validate:"required"`
	WorkingTime  string            `json:"working_time"`
	TaskDone     string            `json:"task_done" validate:"required"`
	ResearchDone string            `json:"research_done"`
	Remarks      *TaskRemarksInput `json:"remarks" validate:"required"`
}

// ApproveDailyTaskRequest 审批每日任务请求
type ApproveDailyTaskRequest struct {
	TaskID         string `json:"task_id" validate:"required"`
	ApprovalStatus string `json:"approval_status" validate:"required,oneof=approved rejected"`
	ApproverID     string `json:"approver_id" validate:"required"`
	Remarks        string `json:"remarks"`
	Complains      string `json:"complains"`
}

type dailyTaskService struct {
	db *gorm.DB
	*options
}

// NewDailyTaskService 创建每日任务服务
func NewDailyTaskService(db *gorm.DB, opts ...Option) DailyTaskService {
	return &dailyTaskService{
		db:      db,
		options: buildOptions(opts),
	}
}

// ParseTaskDate 解析任务日期并归一到当天零点
func ParseTaskDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range taskDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return startOfDay(t.In(loc)), nil
		}
	}
	return time.Time{}, NewValidationError("date must be a valid date (YYYY-MM-DD or RFC3339)")
}

// CreateTask 提交每日任务
// 同一员工同一天只能提交一条
func (s *dailyTaskService) CreateTask(ctx context.Context, req *CreateDailyTaskRequest) (*model.DailyTaskModel, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock()
	date, err := ParseTaskDate(req.Date, now.Location())
	if err != nil {
		return nil, err
	}

	repo := repository.NewDailyTaskRepository(s.db)
	_, err = repo.FindByEmployeeAndDate(ctx, req.EmployeeID, date)
	switch {
	case err == nil:
		return nil, NewConflictError("task already exists for this date")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, NewStorageError("failed to look up daily task", err)
	}

	task := &model.DailyTaskModel{
		ID:           uuid.New().String(),
		EmployeeID:   req.EmployeeID,
		Date:         date,
		Project:      req.Project,
		WorkingTime:  req.WorkingTime,
		TaskDone:     req.TaskDone,
		ResearchDone: req.ResearchDone,
		Remarks: model.TaskRemarks{
			TimeTaken:    *req.Remarks.TimeTaken,
			TimeExpected: *req.Remarks.TimeExpected,
			Reason:       req.Remarks.Reason,
		},
		ApprovalStatus: model.ApprovalStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := task.Validate(); err != nil {
		return nil, NewValidationError(err.Error())
	}

	if err := repo.Create(ctx, task); err != nil {
		// 唯一索引兜底并发提交
		err = classify(err, "daily task not found", "failed to create daily task")
		if IsConflict(err) {
			return nil, NewConflictError("task already exists for this date")
		}
		s.logger.WithError(err).WithField("employee_id", req.EmployeeID).Error("create task failed")
		return nil, err
	}

	metrics.RecordTaskCreated()
	s.audit(ctx, task.EmployeeID, ActionCreateTask, task.ID, map[string]interface{}{
		"date":    task.Date.Format("2006-01-02"),
		"project": task.Project,
	})
	s.publisher.Publish(ctx, &notify.Event{
		Type:         notify.EventTaskCreated,
		ResourceType: notify.ResourceDailyTask,
		ResourceID:   task.ID,
		EmployeeID:   task.EmployeeID,
		Summary:      fmt.Sprintf("%s submitted a task for %s (%s)", task.EmployeeID, task.Date.Format("2006-01-02"), task.Project),
		Data:         task,
		OccurredAt:   now,
	})
	s.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"employee_id": task.EmployeeID,
	}).Info("daily task created")

	return task, nil
}

// ApproveTask 审批每日任务
// 默认允许覆盖已有结论,严格模式下已决定的任务返回冲突
func (s *dailyTaskService) ApproveTask(ctx context.Context, req *ApproveDailyTaskRequest) (*model.DailyTaskModel, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock()
	var task *model.DailyTaskModel
	var previous string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewDailyTaskRepository(tx)

		current, err := repo.FindByID(ctx, req.TaskID)
		if err != nil {
			return classify(err, "task not found", "failed to load daily task")
		}
		if s.strictReapproval && current.IsDecided() {
			return NewConflictError(fmt.Sprintf("task already %s", current.ApprovalStatus))
		}
		previous = current.ApprovalStatus

		updated, err := repo.UpdateDecision(ctx, req.TaskID, &repository.TaskDecision{
			ApprovalStatus:   req.ApprovalStatus,
			ApprovedBy:       req.ApproverID,
			ApprovedAt:       now,
			ManagerRemarks:   req.Remarks,
			ManagerComplains: req.Complains,
			OnlyPending:      s.strictReapproval,
		})
		if err != nil {
			return NewStorageError("failed to save approval", err)
		}
		if !updated {
			if s.strictReapproval {
				return NewConflictError("task already decided")
			}
			return NewNotFoundError("task not found")
		}

		record := &model.ApprovalRecordModel{
			ID:             uuid.New().String(),
			TaskID:         req.TaskID,
			Approver:       req.ApproverID,
			PreviousStatus: previous,
			Result:         req.ApprovalStatus,
			Remarks:        req.Remarks,
			Complains:      req.Complains,
			CreatedAt:      now,
		}
		if err := record.Check(); err != nil {
			return NewValidationError(err.Error())
		}
		if record.Overrides() {
			s.logger.WithFields(logrus.Fields{
				"task_id":         req.TaskID,
				"previous_status": previous,
				"approval_status": req.ApprovalStatus,
			}).Warn("overriding earlier decision")
		}
		if err := repository.NewApprovalRecordRepository(tx).Create(ctx, record); err != nil {
			return NewStorageError("failed to save approval record", err)
		}

		task, err = repo.FindByID(ctx, req.TaskID)
		if err != nil {
			return classify(err, "task not found", "failed to reload daily task")
		}
		return nil
	})
	if err != nil {
		if IsStorage(err) {
			s.logger.WithError(err).WithField("task_id", req.TaskID).Error("approve task failed")
		}
		return nil, err
	}

	metrics.RecordApproval(req.ApprovalStatus)
	s.audit(ctx, req.ApproverID, ActionApproveTask, task.ID, map[string]interface{}{
		"previous_status": previous,
		"approval_status": task.ApprovalStatus,
	})
	s.publisher.Publish(ctx, &notify.Event{
		Type:         notify.EventTaskDecided,
		ResourceType: notify.ResourceDailyTask,
		ResourceID:   task.ID,
		EmployeeID:   task.EmployeeID,
		Summary:      fmt.Sprintf("task of %s for %s was %s by %s", task.EmployeeID, task.Date.Format("2006-01-02"), task.ApprovalStatus, req.ApproverID),
		Data:         task,
		OccurredAt:   now,
	})
	s.logger.WithFields(logrus.Fields{
		"task_id":         task.ID,
		"approval_status": task.ApprovalStatus,
		"approved_by":     task.ApprovedBy,
		"previous_status": previous,
	}).Info("daily task decided")

	return task, nil
}

// GetTask 获取任务详情
func (s *dailyTaskService) GetTask(ctx context.Context, id string) (*model.DailyTaskModel, error) {
	task, err := repository.NewDailyTaskRepository(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "task not found", "failed to load daily task")
	}
	return task, nil
}

// ListTasksForEmployee 查询员工任务,可按月过滤,按日期倒序
func (s *dailyTaskService) ListTasksForEmployee(ctx context.Context, employeeID string, month, year int) ([]*model.DailyTaskModel, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, NewValidationError("employee_id is required")
	}
	window, err := NewMonthRange(month, year, s.clock().Location())
	if err != nil {
		return nil, err
	}

	filter := &repository.DailyTaskFilter{EmployeeID: &employeeID}
	if window != nil {
		filter.From = &window.From
		filter.To = &window.To
	}

	tasks, err := repository.NewDailyTaskRepository(s.db).FindByFilter(ctx, filter)
	if err != nil {
		return nil, NewStorageError("failed to list daily tasks", err)
	}
	return tasks, nil
}

// ListPendingTasks 查询所有待审批任务,按日期倒序
func (s *dailyTaskService) ListPendingTasks(ctx context.Context) ([]*model.DailyTaskModel, error) {
	status := model.ApprovalStatusPending
	tasks, err := repository.NewDailyTaskRepository(s.db).FindByFilter(ctx, &repository.DailyTaskFilter{ApprovalStatus: &status})
	if err != nil {
		return nil, NewStorageError("failed to list pending tasks", err)
	}
	return tasks, nil
}

// ApprovalHistory 查询任务的审批记录
func (s *dailyTaskService) ApprovalHistory(ctx context.Context, taskID string) ([]*model.ApprovalRecordModel, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	records, err := repository.NewApprovalRecordRepository(s.db).FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, NewStorageError("failed to list approval records", err)
	}
	return records, nil
}

// audit 记录审计日志,失败只记录告警
func (s *dailyTaskService) audit(ctx context.Context, userID, action, resourceID string, details interface{}) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.RecordAction(ctx, userID, action, notify.ResourceDailyTask, resourceID, details); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("failed to record audit log")
	}
}
