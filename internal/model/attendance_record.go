package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// 考勤状态
const (
	AttendanceStatusCheckedIn  = "checked-in"
	AttendanceStatusCheckedOut = "checked-out"
)

// Location 打卡地理位置
type Location struct {
	Latitude  float64  `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude float64  `gorm:"type:decimal(10,7)" json:"longitude"`
	Address   string   `gorm:"type:varchar(512)" json:"address"`
	Accuracy  *float64 `json:"accuracy"` // 定位精度(米),未知时为 null
}

// AttendanceRecordModel 考勤记录数据模型
// 每个员工每天最多一条记录
type AttendanceRecordModel struct {
	ID               string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EmployeeID       string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_attendance_employee_date" json:"employee_id"`
	EmployeeName     string         `gorm:"type:varchar(255);not null" json:"employee_name"`
	Date             time.Time      `gorm:"not null;uniqueIndex:idx_attendance_employee_date;index" json:"date"` // 当天零点
	CheckInTime      *time.Time     `json:"check_in_time"`
	CheckInLocation  Location       `gorm:"embedded;embeddedPrefix:check_in_" json:"check_in_location"`
	CheckOutTime     *time.Time     `json:"check_out_time"`
	CheckOutLocation Location       `gorm:"embedded;embeddedPrefix:check_out_" json:"check_out_location"`
	TotalHours       *float64       `gorm:"type:decimal(6,2)" json:"total_hours"` // 仅签退后有值
	Status           string         `gorm:"type:varchar(32);not null;index" json:"status"`
	DeviceInfo       datatypes.JSON `json:"device_info"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (AttendanceRecordModel) TableName() string {
	return "attendance_records"
}

// IsCheckedOut 是否已签退
func (m *AttendanceRecordModel) IsCheckedOut() bool {
	return m.Status == AttendanceStatusCheckedOut
}

// Validate 验证考勤记录模型
func (m *AttendanceRecordModel) Validate() error {
	if m.ID == "" {
		return errors.New("record ID is required")
	}
	if m.EmployeeID == "" {
		return errors.New("employee ID is required")
	}
	if m.Date.IsZero() {
		return errors.New("record date is required")
	}
	switch m.Status {
	case AttendanceStatusCheckedIn:
		if m.CheckOutTime != nil || m.TotalHours != nil {
			return errors.New("checked-in record must not have check-out data")
		}
	case AttendanceStatusCheckedOut:
		if m.CheckOutTime == nil || m.TotalHours == nil {
			return errors.New("checked-out record requires check-out time and total hours")
		}
	default:
		return errors.New("invalid attendance status")
	}
	return nil
}
