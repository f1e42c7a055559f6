package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/mautops/office-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttendanceService(t *testing.T, clock *fakeClock) (service.AttendanceService, *notify.RecordingPublisher, repository.AuditLogRepository) {
	db := setupTestDBForService(t)
	publisher := &notify.RecordingPublisher{}
	auditRepo := repository.NewAuditLogRepository(db)
	svc := service.NewAttendanceService(db,
		service.WithClock(clock.Now),
		service.WithPublisher(publisher),
		service.WithAuditLog(service.NewAuditLogService(auditRepo, service.WithClock(clock.Now))),
	)
	return svc, publisher, auditRepo
}

// TestAttendanceService_CheckIn 测试签到
func TestAttendanceService_CheckIn(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local))
	svc, publisher, auditRepo := newAttendanceService(t, clock)
	ctx := context.Background()

	record, err := svc.CheckIn(ctx, &service.CheckInRequest{
		EmployeeID:   "E1",
		EmployeeName: "Asha",
		Location:     &service.LocationInput{Latitude: floatPtr(12.97), Longitude: floatPtr(77.59), Address: "HQ", Accuracy: floatPtr(15)},
		DeviceInfo:   json.RawMessage(`{"platform":"android"}`),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, model.AttendanceStatusCheckedIn, record.Status)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), record.Date)
	require.NotNil(t, record.CheckInTime)
	assert.Equal(t, clock.Now(), *record.CheckInTime)
	assert.Equal(t, "HQ", record.CheckInLocation.Address)
	assert.Nil(t, record.CheckOutTime)
	assert.Nil(t, record.TotalHours)
	assert.JSONEq(t, `{"platform":"android"}`, string(record.DeviceInfo))

	assert.Equal(t, []string{notify.EventCheckedIn}, publisher.Types())

	logs, err := auditRepo.Find(ctx, repository.AuditLogFilter{ResourceType: notify.ResourceAttendance, ResourceID: record.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.ActionCheckIn, logs[0].Action)
}

// TestAttendanceService_CheckIn_Validation 测试签到必填字段
func TestAttendanceService_CheckIn_Validation(t *testing.T) {
	clock := newFakeClock(time.Now())
	svc, _, _ := newAttendanceService(t, clock)

	_, err := svc.CheckIn(context.Background(), &service.CheckInRequest{EmployeeID: "E1"})
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
	assert.Contains(t, err.Error(), "employee_name")

	_, err = svc.CheckIn(context.Background(), &service.CheckInRequest{EmployeeName: "  "})
	assert.True(t, service.IsValidation(err))

	_, err = svc.CheckIn(context.Background(), &service.CheckInRequest{
		EmployeeID: "E1", EmployeeName: "Asha", DeviceInfo: json.RawMessage(`{broken`),
	})
	assert.True(t, service.IsValidation(err))
}

// TestAttendanceService_CheckIn_Conflict 测试同一天重复签到
func TestAttendanceService_CheckIn_Conflict(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local))
	svc, _, _ := newAttendanceService(t, clock)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	require.Error(t, err)
	assert.True(t, service.IsConflict(err))

	// 第二天可以再次签到
	clock.Advance(24 * time.Hour)
	_, err = svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	assert.NoError(t, err)
}

// TestAttendanceService_CheckOut 测试签退及工时计算
func TestAttendanceService_CheckOut(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local))
	svc, publisher, _ := newAttendanceService(t, clock)
	ctx := context.Background()

	record, err := svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	require.NoError(t, err)

	clock.Advance(90 * time.Minute)
	out, err := svc.CheckOut(ctx, &service.CheckOutRequest{RecordID: record.ID})
	require.NoError(t, err)

	assert.Equal(t, model.AttendanceStatusCheckedOut, out.Status)
	require.NotNil(t, out.TotalHours)
	assert.Equal(t, 1.5, *out.TotalHours)
	require.NotNil(t, out.CheckOutTime)
	assert.Equal(t, clock.Now(), *out.CheckOutTime)

	// 缺省位置字段使用默认值
	assert.Equal(t, 0.0, out.CheckOutLocation.Latitude)
	assert.Equal(t, 0.0, out.CheckOutLocation.Longitude)
	assert.Equal(t, service.UnknownAddress, out.CheckOutLocation.Address)
	assert.Nil(t, out.CheckOutLocation.Accuracy)
	assert.NoError(t, out.Validate())

	assert.Equal(t, []string{notify.EventCheckedIn, notify.EventCheckedOut}, publisher.Types())
}

// TestAttendanceService_CheckOut_Twice 测试重复签退
func TestAttendanceService_CheckOut_Twice(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local))
	svc, _, _ := newAttendanceService(t, clock)
	ctx := context.Background()

	record, err := svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	require.NoError(t, err)

	clock.Advance(8 * time.Hour)
	_, err = svc.CheckOut(ctx, &service.CheckOutRequest{RecordID: record.ID})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = svc.CheckOut(ctx, &service.CheckOutRequest{RecordID: record.ID})
	require.Error(t, err)
	assert.True(t, service.IsInvalidState(err))
	assert.Equal(t, "already checked out", err.Error())

	// 已签退当天不能再签到
	_, err = svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	assert.True(t, service.IsConflict(err))
}

// TestAttendanceService_CheckOut_Errors 测试签退错误分类
func TestAttendanceService_CheckOut_Errors(t *testing.T) {
	clock := newFakeClock(time.Now())
	svc, _, _ := newAttendanceService(t, clock)

	_, err := svc.CheckOut(context.Background(), &service.CheckOutRequest{})
	assert.True(t, service.IsValidation(err))

	_, err = svc.CheckOut(context.Background(), &service.CheckOutRequest{RecordID: "missing"})
	assert.True(t, service.IsNotFound(err))
}

// TestAttendanceService_GetTodayAndHistory 测试当天记录与历史查询
func TestAttendanceService_GetTodayAndHistory(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 2, 28, 9, 0, 0, 0, time.Local))
	svc, _, _ := newAttendanceService(t, clock)
	ctx := context.Background()

	_, err := svc.GetToday(ctx, "E1")
	assert.True(t, service.IsNotFound(err))

	for i := 0; i < 3; i++ {
		_, err := svc.CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}
	clock.Advance(-24 * time.Hour)

	today, err := svc.GetToday(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local).Equal(today.Date))

	all, err := svc.ListByEmployee(ctx, "E1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.After(all[1].Date))

	feb, err := svc.ListByEmployee(ctx, "E1", 2, 2024)
	require.NoError(t, err)
	assert.Len(t, feb, 2)

	_, err = svc.ListByEmployee(ctx, "E1", 13, 2024)
	assert.True(t, service.IsValidation(err))
}

// TestWorkedHours 测试工时换算与舍入
func TestWorkedHours(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration time.Duration
		want     float64
	}{
		{"ninety minutes", 5400000 * time.Millisecond, 1.5},
		{"eight hours", 8 * time.Hour, 8},
		{"rounds to two decimals", 20 * time.Minute, 0.33},
		{"rounds half up", 27 * time.Second, 0.01},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.WorkedHours(start, start.Add(tt.duration)))
		})
	}
}

// TestLocationInput_WithDefaults 测试位置默认值补齐
func TestLocationInput_WithDefaults(t *testing.T) {
	var missing *service.LocationInput
	loc := missing.WithDefaults()
	assert.Equal(t, model.Location{Address: service.UnknownAddress}, loc)

	loc = (&service.LocationInput{Latitude: floatPtr(0), Accuracy: floatPtr(0)}).WithDefaults()
	assert.Equal(t, 0.0, loc.Latitude)
	require.NotNil(t, loc.Accuracy)
	assert.Equal(t, 0.0, *loc.Accuracy)
	assert.Equal(t, service.UnknownAddress, loc.Address)
}
