package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskRequest(employeeID, date string) *service.CreateDailyTaskRequest {
	return &service.CreateDailyTaskRequest{
		EmployeeID:   employeeID,
		Date:         date,
		Project:      "Atlas",
		WorkingTime:  "09:00-18:00",
		TaskDone:     "Implemented export",
		ResearchDone: "Read excelize docs",
		Remarks: &service.TaskRemarksInput{
			TimeTaken:    floatPtr(6),
			TimeExpected: floatPtr(4),
			Reason:       "unexpected edge cases",
		},
	}
}

func newDailyTaskService(t *testing.T, clock *fakeClock, opts ...service.Option) (service.DailyTaskService, *notify.RecordingPublisher) {
	db := setupTestDBForService(t)
	publisher := &notify.RecordingPublisher{}
	opts = append([]service.Option{service.WithClock(clock.Now), service.WithPublisher(publisher)}, opts...)
	return service.NewDailyTaskService(db, opts...), publisher
}

// TestDailyTaskService_CreateTask 测试提交每日任务
func TestDailyTaskService_CreateTask(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, publisher := newDailyTaskService(t, clock)

	task, err := svc.CreateTask(context.Background(), newTaskRequest("E1", "2024-03-05"))
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, model.ApprovalStatusPending, task.ApprovalStatus)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), task.Date)
	assert.Equal(t, 6.0, task.Remarks.TimeTaken)
	assert.Empty(t, task.ApprovedBy)
	assert.Nil(t, task.ApprovedAt)
	assert.Equal(t, []string{notify.EventTaskCreated}, publisher.Types())
}

// TestDailyTaskService_CreateTask_ZeroIsPresent 测试耗时为 0 视为已填写
func TestDailyTaskService_CreateTask_ZeroIsPresent(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)

	req := newTaskRequest("E1", "2024-03-05")
	req.Remarks.TimeTaken = floatPtr(0)
	req.Remarks.TimeExpected = floatPtr(0)

	task, err := svc.CreateTask(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, task.Remarks.TimeTaken)
}

// TestDailyTaskService_CreateTask_Validation 测试必填字段
func TestDailyTaskService_CreateTask_Validation(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*service.CreateDailyTaskRequest)
		field  string
	}{
		{"missing employee", func(r *service.CreateDailyTaskRequest) { r.EmployeeID = "" }, "employee_id"},
		{"missing date", func(r *service.CreateDailyTaskRequest) { r.Date = "" }, "date"},
		{"missing project", func(r *service.CreateDailyTaskRequest) { r.Project = "" }, "project"},
		{"missing task done", func(r *service.CreateDailyTaskRequest) { r.TaskDone = "" }, "task_done"},
		{"missing remarks", func(r *service.CreateDailyTaskRequest) { r.Remarks = nil }, "remarks"},
		{"missing time taken", func(r *service.CreateDailyTaskRequest) { r.Remarks.TimeTaken = nil }, "remarks.time_taken"},
		{"missing time expected", func(r *service.CreateDailyTaskRequest) { r.Remarks.TimeExpected = nil }, "remarks.time_expected"},
		{"missing reason", func(r *service.CreateDailyTaskRequest) { r.Remarks.Reason = "" }, "remarks.reason"},
		{"invalid date", func(r *service.CreateDailyTaskRequest) { r.Date = "yesterday" }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTaskRequest("E1", "2024-03-05")
			tt.mutate(req)
			_, err := svc.CreateTask(ctx, req)
			require.Error(t, err)
			assert.True(t, service.IsValidation(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

// TestDailyTaskService_CreateTask_Duplicate 测试同一天重复提交
func TestDailyTaskService_CreateTask_Duplicate(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-05"))
	require.NoError(t, err)

	// 同一天的不同时间点归一到同一天
	_, err = svc.CreateTask(ctx, newTaskRequest("E1", time.Date(2024, 3, 5, 15, 30, 0, 0, time.Local).Format(time.RFC3339)))
	require.Error(t, err)
	assert.True(t, service.IsConflict(err))

	_, err = svc.CreateTask(ctx, newTaskRequest("E2", "2024-03-05"))
	assert.NoError(t, err)
	_, err = svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-06"))
	assert.NoError(t, err)
}

// TestDailyTaskService_ApproveTask 测试审批
func TestDailyTaskService_ApproveTask(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, publisher := newDailyTaskService(t, clock)
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-05"))
	require.NoError(t, err)

	clock.Advance(15 * time.Hour)
	approved, err := svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{
		TaskID:         created.ID,
		ApprovalStatus: model.ApprovalStatusApproved,
		ApproverID:     "M1",
		Remarks:        "good work",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalStatusApproved, approved.ApprovalStatus)
	assert.Equal(t, "M1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, clock.Now().Equal(*approved.ApprovedAt))
	assert.False(t, approved.ApprovedAt.Before(approved.CreatedAt))
	assert.Equal(t, "good work", approved.ManagerRemarks)
	assert.Equal(t, "", approved.ManagerComplains)

	// 其他字段保持不变
	assert.Equal(t, created.Project, approved.Project)
	assert.Equal(t, created.TaskDone, approved.TaskDone)
	assert.Equal(t, created.ResearchDone, approved.ResearchDone)
	assert.Equal(t, created.WorkingTime, approved.WorkingTime)
	assert.Equal(t, created.Remarks, approved.Remarks)
	assert.True(t, created.Date.Equal(approved.Date))
	assert.NoError(t, approved.Validate())

	history, err := svc.ApprovalHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ApprovalStatusPending, history[0].PreviousStatus)
	assert.Equal(t, model.ApprovalStatusApproved, history[0].Result)

	assert.Equal(t, []string{notify.EventTaskCreated, notify.EventTaskDecided}, publisher.Types())
}

// TestDailyTaskService_ApproveTask_Errors 测试审批错误分类
func TestDailyTaskService_ApproveTask_Errors(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)
	ctx := context.Background()

	_, err := svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: "t1", ApprovalStatus: "approved"})
	assert.True(t, service.IsValidation(err))
	assert.Contains(t, err.Error(), "approver_id")

	_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: "t1", ApprovalStatus: "maybe", ApproverID: "M1"})
	assert.True(t, service.IsValidation(err))
	assert.Contains(t, err.Error(), "approval_status")

	_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: "missing", ApprovalStatus: "rejected", ApproverID: "M1"})
	assert.True(t, service.IsNotFound(err))
}

// TestDailyTaskService_Reapproval 测试重复审批在两种模式下的行为
func TestDailyTaskService_Reapproval(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive by default", func(t *testing.T) {
		clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
		svc, _ := newDailyTaskService(t, clock)

		task, err := svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-05"))
		require.NoError(t, err)
		_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: task.ID, ApprovalStatus: "approved", ApproverID: "M1"})
		require.NoError(t, err)

		clock.Advance(time.Hour)
		redecided, err := svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: task.ID, ApprovalStatus: "rejected", ApproverID: "M2", Complains: "missing details"})
		require.NoError(t, err)
		assert.Equal(t, model.ApprovalStatusRejected, redecided.ApprovalStatus)
		assert.Equal(t, "M2", redecided.ApprovedBy)
		assert.Equal(t, "missing details", redecided.ManagerComplains)

		history, err := svc.ApprovalHistory(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, model.ApprovalStatusApproved, history[1].PreviousStatus)
	})

	t.Run("strict mode rejects", func(t *testing.T) {
		clock := newFakeClock(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local))
		svc, _ := newDailyTaskService(t, clock, service.WithStrictReapproval(true))

		task, err := svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-05"))
		require.NoError(t, err)
		_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: task.ID, ApprovalStatus: "approved", ApproverID: "M1"})
		require.NoError(t, err)

		_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: task.ID, ApprovalStatus: "rejected", ApproverID: "M2"})
		require.Error(t, err)
		assert.True(t, service.IsConflict(err))

		current, err := svc.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ApprovalStatusApproved, current.ApprovalStatus)
	})
}

// TestDailyTaskService_ListTasksForEmployee 测试按月查询
func TestDailyTaskService_ListTasksForEmployee(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 4, 10, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)
	ctx := context.Background()

	for _, date := range []string{"2024-02-29", "2024-03-01", "2024-03-15", "2024-03-31", "2024-04-01"} {
		_, err := svc.CreateTask(ctx, newTaskRequest("E1", date))
		require.NoError(t, err)
	}
	_, err := svc.CreateTask(ctx, newTaskRequest("E2", "2024-03-10"))
	require.NoError(t, err)

	march, err := svc.ListTasksForEmployee(ctx, "E1", 3, 2024)
	require.NoError(t, err)
	require.Len(t, march, 3)
	assert.Equal(t, 31, march[0].Date.Day())
	assert.Equal(t, 15, march[1].Date.Day())
	assert.Equal(t, 1, march[2].Date.Day())

	all, err := svc.ListTasksForEmployee(ctx, "E1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := svc.ListTasksForEmployee(ctx, "E3", 3, 2024)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListTasksForEmployee(ctx, "E1", 0, 2024)
	assert.True(t, service.IsValidation(err))
}

// TestDailyTaskService_ListPendingTasks 测试待审批列表
func TestDailyTaskService_ListPendingTasks(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 20, 18, 0, 0, 0, time.Local))
	svc, _ := newDailyTaskService(t, clock)
	ctx := context.Background()

	first, err := svc.CreateTask(ctx, newTaskRequest("E1", "2024-03-01"))
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, newTaskRequest("E2", "2024-03-02"))
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, newTaskRequest("E3", "2024-03-03"))
	require.NoError(t, err)

	_, err = svc.ApproveTask(ctx, &service.ApproveDailyTaskRequest{TaskID: first.ID, ApprovalStatus: "approved", ApproverID: "M1"})
	require.NoError(t, err)

	pending, err := svc.ListPendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "E3", pending[0].EmployeeID)
	assert.Equal(t, "E2", pending[1].EmployeeID)
}

// TestParseTaskDate 测试日期解析与归一
func TestParseTaskDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	got, err := service.ParseTaskDate("2024-03-05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, loc), got)

	// UTC 晚间在本地已是第二天
	got, err = service.ParseTaskDate("2024-03-05T20:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, loc), got)

	_, err = service.ParseTaskDate("05/03/2024", loc)
	assert.True(t, service.IsValidation(err))
}
