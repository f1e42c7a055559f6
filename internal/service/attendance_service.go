package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UnknownAddress 缺少地址时使用的占位值
const UnknownAddress = "Location not available"

// AttendanceService 考勤服务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, req *CheckInRequest) (*model.AttendanceRecordModel, error)
	CheckOut(ctx context.Context, req *CheckOutRequest) (*model.AttendanceRecordModel, error)
	GetToday(ctx context.Context, employeeID string) (*model.AttendanceRecordModel, error)
	ListByEmployee(ctx context.Context, employeeID string, month, year int) ([]*model.AttendanceRecordModel, error)
}

// LocationInput 客户端上报的位置,所有字段可缺省
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	Accuracy  *float64 `json:"accuracy"`
}

// WithDefaults 补齐缺省字段: 坐标为 0,地址为占位值,精度为 null
func (l *LocationInput) WithDefaults() model.Location {
	loc := model.Location{Address: UnknownAddress}
	if l == nil {
		return loc
	}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	if addr := strings.TrimSpace(l.Address); addr != "" {
		loc.Address = addr
	}
	loc.Accuracy = l.Accuracy
	return loc
}

// CheckInRequest 签到请求
type CheckInRequest struct {
	EmployeeID   string          `json:"employee_id" validate:"required"`
	EmployeeName string          `json:"employee_name" validate:"required"`
	Location     *LocationInput  `json:"location"`
	DeviceInfo   json.RawMessage `json:"device_info"`
}

// CheckOutRequest 签退请求
type CheckOutRequest struct {
	RecordID string         `json:"record_id" validate:"required"`
	Location *LocationInput `json:"location"`
}

type attendanceService struct {
	db *gorm.DB
	*options
}

// NewAttendanceService 创建考勤服务
func NewAttendanceService(db *gorm.DB, opts ...Option) AttendanceService {
	return &attendanceService{
		db:      db,
		options: buildOptions(opts),
	}
}

// CheckIn 签到
// 同一员工同一天只能签到一次
func (s *attendanceService) CheckIn(ctx context.Context, req *CheckInRequest) (*model.AttendanceRecordModel, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.EmployeeName = strings.TrimSpace(req.EmployeeName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	repo := repository.NewAttendanceRepository(s.db)
	now := s.clock()
	today := startOfDay(now)

	existing, err := repo.FindByEmployeeAndDate(ctx, req.EmployeeID, today)
	switch {
	case err == nil:
		if existing.IsCheckedOut() {
			return nil, NewConflictError("already checked out for today")
		}
		return nil, NewConflictError("already checked in for today")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, NewStorageError("failed to look up attendance record", err)
	}

	var deviceInfo datatypes.JSON
	if len(req.DeviceInfo) > 0 && string(req.DeviceInfo) != "null" {
		if !json.Valid(req.DeviceInfo) {
			return nil, NewValidationError("device_info must be valid JSON")
		}
		deviceInfo = datatypes.JSON(req.DeviceInfo)
	}

	record := &model.AttendanceRecordModel{
		ID:              uuid.New().String(),
		EmployeeID:      req.EmployeeID,
		EmployeeName:    req.EmployeeName,
		Date:            today,
		CheckInTime:     &now,
		CheckInLocation: req.Location.WithDefaults(),
		Status:          model.AttendanceStatusCheckedIn,
		DeviceInfo:      deviceInfo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := record.Validate(); err != nil {
		return nil, NewValidationError(err.Error())
	}

	if err := repo.Create(ctx, record); err != nil {
		err = classify(err, "attendance record not found", "failed to create attendance record")
		if IsConflict(err) {
			return nil, NewConflictError("already checked in for today")
		}
		s.logger.WithError(err).WithField("employee_id", req.EmployeeID).Error("check-in failed")
		return nil, err
	}

	metrics.RecordCheckIn()
	s.audit(ctx, req.EmployeeID, ActionCheckIn, record.ID, map[string]interface{}{
		"address": record.CheckInLocation.Address,
	})
	s.publisher.Publish(ctx, &notify.Event{
		Type:         notify.EventCheckedIn,
		ResourceType: notify.ResourceAttendance,
		ResourceID:   record.ID,
		EmployeeID:   record.EmployeeID,
		Summary:      fmt.Sprintf("%s checked in at %s", record.EmployeeName, record.CheckInLocation.Address),
		Data:         record,
		OccurredAt:   now,
	})
	s.logger.WithFields(logrus.Fields{
		"record_id":   record.ID,
		"employee_id": record.EmployeeID,
	}).Info("employee checked in")

	return record, nil
}

// CheckOut 签退
// 记录只能从 checked-in 变为 checked-out 一次
func (s *attendanceService) CheckOut(ctx context.Context, req *CheckOutRequest) (*model.AttendanceRecordModel, error) {
	req.RecordID = strings.TrimSpace(req.RecordID)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	repo := repository.NewAttendanceRepository(s.db)
	record, err := repo.FindByID(ctx, req.RecordID)
	if err != nil {
		return nil, classify(err, "attendance record not found", "failed to load attendance record")
	}
	if record.IsCheckedOut() {
		return nil, NewInvalidStateError("already checked out")
	}

	now := s.clock()
	hours := 0.0
	if record.CheckInTime != nil {
		hours = WorkedHours(*record.CheckInTime, now)
	}

	record.CheckOutTime = &now
	record.CheckOutLocation = req.Location.WithDefaults()
	record.TotalHours = &hours
	record.Status = model.AttendanceStatusCheckedOut
	record.UpdatedAt = now

	updated, err := repo.MarkCheckedOut(ctx, record)
	if err != nil {
		s.logger.WithError(err).WithField("record_id", record.ID).Error("check-out failed")
		return nil, NewStorageError("failed to save check-out", err)
	}
	if !updated {
		// 并发签退时只有一个请求能成功
		return nil, NewInvalidStateError("already checked out")
	}

	metrics.RecordCheckOut(hours)
	s.audit(ctx, record.EmployeeID, ActionCheckOut, record.ID, map[string]interface{}{
		"total_hours": hours,
		"address":     record.CheckOutLocation.Address,
	})
	s.publisher.Publish(ctx, &notify.Event{
		Type:         notify.EventCheckedOut,
		ResourceType: notify.ResourceAttendance,
		ResourceID:   record.ID,
		EmployeeID:   record.EmployeeID,
		Summary:      fmt.Sprintf("%s checked out after %.2f hours", record.EmployeeName, hours),
		Data:         record,
		OccurredAt:   now,
	})
	s.logger.WithFields(logrus.Fields{
		"record_id":   record.ID,
		"employee_id": record.EmployeeID,
		"total_hours": hours,
	}).Info("employee checked out")

	return record, nil
}

// GetToday 获取员工当天的考勤记录
func (s *attendanceService) GetToday(ctx context.Context, employeeID string) (*model.AttendanceRecordModel, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, NewValidationError("employee_id is required")
	}
	record, err := repository.NewAttendanceRepository(s.db).FindByEmployeeAndDate(ctx, employeeID, startOfDay(s.clock()))
	if err != nil {
		return nil, classify(err, "no attendance record for today", "failed to load attendance record")
	}
	return record, nil
}

// ListByEmployee 查询员工考勤历史,按日期倒序
func (s *attendanceService) ListByEmployee(ctx context.Context, employeeID string, month, year int) ([]*model.AttendanceRecordModel, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, NewValidationError("employee_id is required")
	}
	window, err := NewMonthRange(month, year, s.clock().Location())
	if err != nil {
		return nil, err
	}

	filter := &repository.AttendanceFilter{EmployeeID: &employeeID}
	if window != nil {
		filter.From = &window.From
		filter.To = &window.To
	}

	records, err := repository.NewAttendanceRepository(s.db).FindByFilter(ctx, filter)
	if err != nil {
		return nil, NewStorageError("failed to list attendance records", err)
	}
	return records, nil
}

// audit 记录审计日志,失败只记录告警
func (s *attendanceService) audit(ctx context.Context, userID, action, resourceID string, details interface{}) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.RecordAction(ctx, userID, action, notify.ResourceAttendance, resourceID, details); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("failed to record audit log")
	}
}

// WorkedHours 计算工时,按毫秒换算小时并保留两位小数
func WorkedHours(checkIn, checkOut time.Time) float64 {
	ms := float64(checkOut.Sub(checkIn).Milliseconds())
	return math.Round(ms/3_600_000*100) / 100
}
