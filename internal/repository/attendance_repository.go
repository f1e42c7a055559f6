package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// AttendanceRepository 考勤记录仓储接口
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecordModel) error
	FindByID(ctx context.Context, id string) (*model.AttendanceRecordModel, error)
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecordModel, error)
	FindByFilter(ctx context.Context, filter *AttendanceFilter) ([]*model.AttendanceRecordModel, error)
	MarkCheckedOut(ctx context.Context, record *model.AttendanceRecordModel) (bool, error)
}

// AttendanceFilter 考勤记录查询过滤器
// From 包含, To 不包含
type AttendanceFilter struct {
	EmployeeID *string
	Status     *string
	From       *time.Time
	To         *time.Time
}

// attendanceRepository 考勤记录仓储实现
type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository 创建考勤记录仓储
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create 新建考勤记录
func (r *attendanceRepository) Create(ctx context.Context, record *model.AttendanceRecordModel) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID 根据 ID 查找考勤记录
func (r *attendanceRepository) FindByID(ctx context.Context, id string) (*model.AttendanceRecordModel, error) {
	var record model.AttendanceRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByEmployeeAndDate 查找员工某天的考勤记录
func (r *attendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecordModel, error) {
	var record model.AttendanceRecordModel
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByFilter 根据过滤器查找考勤记录,按日期倒序
func (r *attendanceRepository) FindByFilter(ctx context.Context, filter *AttendanceFilter) ([]*model.AttendanceRecordModel, error) {
	var records []*model.AttendanceRecordModel
	query := r.db.WithContext(ctx).Model(&model.AttendanceRecordModel{})

	if filter != nil {
		if filter.EmployeeID != nil {
			query = query.Where("employee_id = ?", *filter.EmployeeID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.From != nil {
			query = query.Where("date >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("date < ?", *filter.To)
		}
	}

	err := query.Order("date DESC").Find(&records).Error
	return records, err
}

// MarkCheckedOut 写入签退数据
// 仅当记录仍处于 checked-in 状态时更新,返回是否更新成功
func (r *attendanceRepository) MarkCheckedOut(ctx context.Context, record *model.AttendanceRecordModel) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecordModel{}).
		Where("id = ? AND status = ?", record.ID, model.AttendanceStatusCheckedIn).
		Updates(map[string]interface{}{
			"check_out_time":      record.CheckOutTime,
			"check_out_latitude":  record.CheckOutLocation.Latitude,
			"check_out_longitude": record.CheckOutLocation.Longitude,
			"check_out_address":   record.CheckOutLocation.Address,
			"check_out_accuracy":  record.CheckOutLocation.Accuracy,
			"total_hours":         record.TotalHours,
			"status":              record.Status,
			"updated_at":          record.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
