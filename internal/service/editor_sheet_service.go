package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EditorSheetService 编辑表服务接口
type EditorSheetService interface {
	CreateSheet(ctx context.Context, req *CreateSheetRequest) (*model.EditorSheetModel, error)
	GetSheet(ctx context.Context, sheetID string) (*model.EditorSheetModel, error)
	ListSheetsForEmployee(ctx context.Context, employeeID string) ([]*model.EditorSheetModel, error)
	ListAllSheets(ctx context.Context) ([]*model.EditorSheetModel, error)
	DeleteSheet(ctx context.Context, sheetID string) error
	AddTask(ctx context.Context, sheetID string, req *AddEditorTaskRequest) (*model.EditorTaskModel, error)
	UpdateTask(ctx context.Context, sheetID string, req *UpdateEditorTaskRequest) (*model.EditorTaskModel, error)
	DeleteTask(ctx context.Context, sheetID string, taskID string) error
}

// CreateSheetRequest 创建编辑表请求
type CreateSheetRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	EmployeeName string `json:"employee_name" validate:"required"`
	SheetName    string `json:"sheet_name" validate:"required"`
}

// AddEditorTaskRequest 追加任务请求
type AddEditorTaskRequest struct {
	Date  string `json:"date" validate:"required"`
	Title string `json:"title" validate:"required"`
	Link  string `json:"link" validate:"required"`
}

// UpdateEditorTaskRequest 更新任务请求,空字段保持不变
type UpdateEditorTaskRequest struct {
	TaskID string `json:"task_id"`
	Date   string `json:"date"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

type editorSheetService struct {
	repo repository.EditorSheetRepository
	*options
}

// NewEditorSheetService 创建编辑表服务
func NewEditorSheetService(db *gorm.DB, opts ...Option) EditorSheetService {
	return &editorSheetService{
		repo:    repository.NewEditorSheetRepository(db),
		options: buildOptions(opts),
	}
}

// CreateSheet 创建空编辑表
func (s *editorSheetService) CreateSheet(ctx context.Context, req *CreateSheetRequest) (*model.EditorSheetModel, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.EmployeeName = strings.TrimSpace(req.EmployeeName)
	req.SheetName = strings.TrimSpace(req.SheetName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock()
	sheet := &model.EditorSheetModel{
		ID:           uuid.New().String(),
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		SheetName:    req.SheetName,
		Tasks:        []model.EditorTaskModel{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := sheet.Validate(); err != nil {
		return nil, NewValidationError(err.Error())
	}
	if err := s.repo.Create(ctx, sheet); err != nil {
		s.logger.WithError(err).WithField("employee_id", req.EmployeeID).Error("create sheet failed")
		return nil, NewStorageError("failed to create sheet", err)
	}

	s.audit(ctx, sheet.EmployeeID, ActionCreateSheet, sheet.ID, map[string]interface{}{"sheet_name": sheet.SheetName})
	s.logger.WithFields(logrus.Fields{
		"sheet_id":    sheet.ID,
		"employee_id": sheet.EmployeeID,
	}).Info("editor sheet created")
	return sheet, nil
}

// GetSheet 获取编辑表
func (s *editorSheetService) GetSheet(ctx context.Context, sheetID string) (*model.EditorSheetModel, error) {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		return nil, classify(err, "sheet not found", "failed to load sheet")
	}
	ensureTasks(sheet)
	return sheet, nil
}

// ListSheetsForEmployee 查询员工的编辑表,按创建时间正序
func (s *editorSheetService) ListSheetsForEmployee(ctx context.Context, employeeID string) ([]*model.EditorSheetModel, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, NewValidationError("employee_id is required")
	}
	sheets, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, NewStorageError("failed to list sheets", err)
	}
	for _, sheet := range sheets {
		ensureTasks(sheet)
	}
	return sheets, nil
}

// ListAllSheets 查询所有编辑表,按更新时间倒序
func (s *editorSheetService) ListAllSheets(ctx context.Context) ([]*model.EditorSheetModel, error) {
	sheets, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, NewStorageError("failed to list sheets", err)
	}
	for _, sheet := range sheets {
		ensureTasks(sheet)
	}
	return sheets, nil
}

// DeleteSheet 删除编辑表及其任务
func (s *editorSheetService) DeleteSheet(ctx context.Context, sheetID string) error {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		return classify(err, "sheet not found", "failed to load sheet")
	}
	if err := s.repo.Delete(ctx, sheetID); err != nil {
		return classify(err, "sheet not found", "failed to delete sheet")
	}

	s.audit(ctx, sheet.EmployeeID, ActionDeleteSheet, sheetID, map[string]interface{}{"tasks": len(sheet.Tasks)})
	s.changed(ctx, sheet, "deleted sheet "+sheet.SheetName)
	return nil
}

// AddTask 在编辑表末尾追加任务
func (s *editorSheetService) AddTask(ctx context.Context, sheetID string, req *AddEditorTaskRequest) (*model.EditorTaskModel, error) {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		return nil, classify(err, "sheet not found", "failed to load sheet")
	}

	req.Date = strings.TrimSpace(req.Date)
	req.Title = strings.TrimSpace(req.Title)
	req.Link = strings.TrimSpace(req.Link)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock()
	task := &model.EditorTaskModel{
		ID:        uuid.New().String(),
		Date:      req.Date,
		Title:     req.Title,
		Link:      req.Link,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.AppendTask(ctx, sheetID, task); err != nil {
		s.logger.WithError(err).WithField("sheet_id", sheetID).Error("add sheet task failed")
		return nil, NewStorageError("failed to add task", err)
	}

	metrics.RecordEditorTaskOperation("add")
	s.audit(ctx, sheet.EmployeeID, ActionAddEntry, sheetID, map[string]interface{}{"task_id": task.ID, "title": task.Title})
	s.changed(ctx, sheet, "added "+task.Title)
	return task, nil
}

// UpdateTask 部分更新任务
func (s *editorSheetService) UpdateTask(ctx context.Context, sheetID string, req *UpdateEditorTaskRequest) (*model.EditorTaskModel, error) {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		return nil, classify(err, "sheet not found", "failed to load sheet")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task, err := s.repo.FindTask(ctx, sheetID, req.TaskID)
	if err != nil {
		return nil, classify(err, "task not found", "failed to load task")
	}

	if v := strings.TrimSpace(req.Date); v != "" {
		task.Date = v
	}
	if v := strings.TrimSpace(req.Title); v != "" {
		task.Title = v
	}
	if v := strings.TrimSpace(req.Link); v != "" {
		task.Link = v
	}
	task.UpdatedAt = s.clock()

	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.logger.WithError(err).WithField("sheet_id", sheetID).Error("update sheet task failed")
		return nil, NewStorageError("failed to update task", err)
	}

	metrics.RecordEditorTaskOperation("update")
	s.audit(ctx, sheet.EmployeeID, ActionUpdateEntry, sheetID, map[string]interface{}{"task_id": task.ID})
	s.changed(ctx, sheet, "updated "+task.Title)
	return task, nil
}

// DeleteTask 删除任务,任务不存在时不报错
func (s *editorSheetService) DeleteTask(ctx context.Context, sheetID string, taskID string) error {
	sheet, err := s.repo.FindByID(ctx, sheetID)
	if err != nil {
		return classify(err, "sheet not found", "failed to load sheet")
	}
	if strings.TrimSpace(taskID) == "" {
		return nil
	}

	deleted, err := s.repo.DeleteTask(ctx, sheetID, taskID, s.clock())
	if err != nil {
		s.logger.WithError(err).WithField("sheet_id", sheetID).Error("delete sheet task failed")
		return NewStorageError("failed to delete task", err)
	}
	if deleted == 0 {
		return nil
	}

	metrics.RecordEditorTaskOperation("delete")
	s.audit(ctx, sheet.EmployeeID, ActionDeleteEntry, sheetID, map[string]interface{}{"task_id": taskID})
	s.changed(ctx, sheet, "deleted a task")
	return nil
}

// changed 发布编辑表变更事件
func (s *editorSheetService) changed(ctx context.Context, sheet *model.EditorSheetModel, summary string) {
	s.publisher.Publish(ctx, &notify.Event{
		Type:         notify.EventEditorSheetChanged,
		ResourceType: notify.ResourceEditorSheet,
		ResourceID:   sheet.ID,
		EmployeeID:   sheet.EmployeeID,
		Summary:      sheet.EmployeeName + " " + summary,
		OccurredAt:   s.clock(),
	})
}

// audit 记录审计日志,失败只记录告警
func (s *editorSheetService) audit(ctx context.Context, userID, action, resourceID string, details interface{}) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.RecordAction(ctx, userID, action, notify.ResourceEditorSheet, resourceID, details); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("failed to record audit log")
	}
}

// ensureTasks 没有任务时返回空数组而不是 null
func ensureTasks(sheet *model.EditorSheetModel) {
	if sheet.Tasks == nil {
		sheet.Tasks = []model.EditorTaskModel{}
	}
}
