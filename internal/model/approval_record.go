package model

import (
	"fmt"
	"time"
)

// ApprovalRecordModel 每日任务的一次审批决定
// 重新审批不会覆盖旧记录,而是追加新行
type ApprovalRecordModel struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TaskID         string    `gorm:"type:varchar(64);not null;index" json:"task_id"`
	Approver       string    `gorm:"type:varchar(64);not null;index" json:"approver"`
	PreviousStatus string    `gorm:"type:varchar(32);not null" json:"previous_status"`
	Result         string    `gorm:"type:varchar(32);not null" json:"result"`
	Remarks        string    `gorm:"type:text" json:"remarks"`
	Complains      string    `gorm:"type:text" json:"complains"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
}

func (ApprovalRecordModel) TableName() string {
	return "approval_records"
}

// Overrides 是否推翻了之前的审批结论
func (r *ApprovalRecordModel) Overrides() bool {
	return r.PreviousStatus != "" && r.PreviousStatus != ApprovalStatusPending
}

// Check 检查决定是否完整
func (r *ApprovalRecordModel) Check() error {
	switch {
	case r.TaskID == "":
		return fmt.Errorf("approval record: task id is empty")
	case r.Approver == "":
		return fmt.Errorf("approval record: approver is empty")
	case r.Result != ApprovalStatusApproved && r.Result != ApprovalStatusRejected:
		return fmt.Errorf("approval record: unexpected result %q", r.Result)
	}
	return nil
}
