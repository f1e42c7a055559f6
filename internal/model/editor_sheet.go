package model

import (
	"errors"
	"time"
)

// EditorSheetModel 编辑表数据模型
type EditorSheetModel struct {
	ID           string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EmployeeID   string            `gorm:"type:varchar(64);not null;index:idx_editor_sheets_employee_name" json:"employee_id"`
	EmployeeName string            `gorm:"type:varchar(255);not null" json:"employee_name"`
	SheetName    string            `gorm:"type:varchar(255);not null;index:idx_editor_sheets_employee_name" json:"sheet_name"`
	Tasks        []EditorTaskModel `gorm:"foreignKey:SheetID" json:"tasks"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;index" json:"updated_at"`
}

// TableName 指定表名
func (EditorSheetModel) TableName() string {
	return "editor_sheets"
}

// Validate 验证编辑表模型
func (m *EditorSheetModel) Validate() error {
	if m.ID == "" {
		return errors.New("sheet ID is required")
	}
	if m.EmployeeID == "" {
		return errors.New("employee ID is required")
	}
	if m.SheetName == "" {
		return errors.New("sheet name is required")
	}
	return nil
}

// EditorTaskModel 编辑表中的任务条目,按 Position 保持插入顺序
type EditorTaskModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SheetID   string    `gorm:"type:varchar(64);not null;index:idx_editor_tasks_sheet_position" json:"-"`
	Position  int       `gorm:"not null;index:idx_editor_tasks_sheet_position" json:"-"`
	Date      string    `gorm:"type:varchar(32);not null" json:"date"`
	Title     string    `gorm:"type:varchar(512);not null" json:"title"`
	Link      string    `gorm:"type:varchar(2048);not null" json:"link"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (EditorTaskModel) TableName() string {
	return "editor_tasks"
}
