package model

import (
	"errors"
	"time"
)

// 审批状态
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// TaskRemarks 员工对耗时差异的说明
type TaskRemarks struct {
	TimeTaken    float64 `json:"time_taken"`
	TimeExpected float64 `json:"time_expected"`
	Reason       string  `gorm:"type:text" json:"reason"`
}

// DailyTaskModel 每日任务数据模型
// 每个员工每天最多一条任务
type DailyTaskModel struct {
	ID               string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EmployeeID       string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_daily_tasks_employee_date" json:"employee_id"`
	Date             time.Time   `gorm:"not null;uniqueIndex:idx_daily_tasks_employee_date;index" json:"date"` // 当天零点
	Project          string      `gorm:"type:varchar(255);not null" json:"project"`
	WorkingTime      string      `gorm:"type:varchar(64)" json:"working_time"`
	TaskDone         string      `gorm:"type:text;not null" json:"task_done"`
	ResearchDone     string      `gorm:"type:text" json:"research_done"`
	Remarks          TaskRemarks `gorm:"embedded;embeddedPrefix:remarks_" json:"remarks"`
	ApprovalStatus   string      `gorm:"type:varchar(32);not null;index" json:"approval_status"`
	ApprovedBy       string      `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time  `json:"approved_at,omitempty"`
	ManagerRemarks   string      `gorm:"type:text" json:"manager_remarks"`
	ManagerComplains string      `gorm:"type:text" json:"manager_complains"`
	CreatedAt        time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (DailyTaskModel) TableName() string {
	return "daily_tasks"
}

// IsDecided 是否已有审批结论
func (m *DailyTaskModel) IsDecided() bool {
	return m.ApprovalStatus != ApprovalStatusPending
}

// Validate 验证每日任务模型
func (m *DailyTaskModel) Validate() error {
	if m.ID == "" {
		return errors.New("task ID is required")
	}
	if m.EmployeeID == "" {
		return errors.New("employee ID is required")
	}
	if m.Date.IsZero() {
		return errors.New("task date is required")
	}
	switch m.ApprovalStatus {
	case ApprovalStatusPending:
		if m.ApprovedAt != nil || m.ApprovedBy != "" {
			return errors.New("pending task must not have approval data")
		}
	case ApprovalStatusApproved, ApprovalStatusRejected:
		if m.ApprovedAt == nil || m.ApprovedBy == "" {
			return errors.New("decided task requires approver and approval time")
		}
	default:
		return errors.New("invalid approval status")
	}
	return nil
}
