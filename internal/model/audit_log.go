package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AuditLogModel 审计日志,记录谁在何时对哪条记录做了什么
type AuditLogModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string         `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Action       string         `gorm:"type:varchar(64);not null;index" json:"action"`                           // check_in/check_out/create/approve/...
	ResourceType string         `gorm:"type:varchar(32);not null;index:idx_audit_resource" json:"resource_type"` // attendance/daily_task/editor_sheet
	ResourceID   string         `gorm:"type:varchar(64);not null;index:idx_audit_resource" json:"resource_id"`
	RequestID    string         `gorm:"type:varchar(64);index" json:"request_id"`
	IP           string         `gorm:"type:varchar(45)" json:"ip"` // IPv4 或 IPv6
	UserAgent    string         `gorm:"type:text" json:"user_agent"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 检查必填字段
func (l *AuditLogModel) Validate() error {
	required := []struct{ name, value string }{
		{"id", l.ID},
		{"user_id", l.UserID},
		{"action", l.Action},
		{"resource_type", l.ResourceType},
		{"resource_id", l.ResourceID},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("audit log: %s is required", f.name)
		}
	}
	return nil
}
