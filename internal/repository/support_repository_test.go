package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestApprovalRecordRepository_FindByTaskID 测试审批历史按决定顺序返回
func TestApprovalRecordRepository_FindByTaskID(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApprovalRecordRepository(db)
	ctx := context.Background()

	base := time.Now()
	for i, result := range []string{model.ApprovalStatusRejected, model.ApprovalStatusApproved} {
		require.NoError(t, repo.Create(ctx, &model.ApprovalRecordModel{
			ID:             "rec-" + result,
			TaskID:         "task-001",
			Approver:       "M1",
			PreviousStatus: model.ApprovalStatusPending,
			Result:         result,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := repo.FindByTaskID(ctx, "task-001")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.ApprovalStatusRejected, records[0].Result)
	assert.Equal(t, model.ApprovalStatusApproved, records[1].Result)

	records, err = repo.FindByTaskID(ctx, "task-002")
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestApprovalRecordRepository_CountByApprover 测试按审批人统计决定
func TestApprovalRecordRepository_CountByApprover(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewApprovalRecordRepository(db)
	ctx := context.Background()

	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		approver string
		result   string
		at       time.Time
	}{
		{"M1", model.ApprovalStatusApproved, march},
		{"M1", model.ApprovalStatusApproved, march.Add(time.Hour)},
		{"M1", model.ApprovalStatusRejected, march.Add(2 * time.Hour)},
		{"M2", model.ApprovalStatusApproved, march},
		{"M2", model.ApprovalStatusApproved, march.AddDate(0, 1, 0)},
	}
	for i, s := range seed {
		require.NoError(t, repo.Create(ctx, &model.ApprovalRecordModel{
			ID:             "rec-" + string(rune('a'+i)),
			TaskID:         "task-" + string(rune('a'+i)),
			Approver:       s.approver,
			PreviousStatus: model.ApprovalStatusPending,
			Result:         s.result,
			CreatedAt:      s.at,
		}))
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	counts, err := repo.CountByApprover(ctx, &from, &to)
	require.NoError(t, err)

	got := map[string]int64{}
	for _, c := range counts {
		got[c.Approver+"/"+c.Result] = c.Count
	}
	assert.Equal(t, map[string]int64{
		"M1/approved": 2,
		"M1/rejected": 1,
		"M2/approved": 1,
	}, got)

	counts, err = repo.CountByApprover(ctx, nil, nil)
	require.NoError(t, err)
	total := int64(0)
	for _, c := range counts {
		total += c.Count
	}
	assert.EqualValues(t, 5, total)
}

// TestAuditLogRepository_Find 测试审计日志条件查询
func TestAuditLogRepository_Find(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	base := time.Now()
	entries := []*model.AuditLogModel{
		{ID: "log-1", UserID: "E1", Action: "check_in", ResourceType: "attendance", ResourceID: "att-1", CreatedAt: base},
		{ID: "log-2", UserID: "E1", Action: "check_out", ResourceType: "attendance", ResourceID: "att-1", CreatedAt: base.Add(time.Hour)},
		{ID: "log-3", UserID: "M1", Action: "approve_task", ResourceType: "daily_task", ResourceID: "t-1", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		e.Details = datatypes.JSON(`{}`)
		require.NoError(t, repo.Create(ctx, e))
	}

	logs, err := repo.Find(ctx, repository.AuditLogFilter{ResourceType: "attendance", ResourceID: "att-1"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "check_out", logs[0].Action)

	logs, err = repo.Find(ctx, repository.AuditLogFilter{UserID: "M1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "t-1", logs[0].ResourceID)

	from := base.Add(30 * time.Minute)
	logs, err = repo.Find(ctx, repository.AuditLogFilter{From: &from, Limit: 1})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log-3", logs[0].ID)

	logs, err = repo.Find(ctx, repository.AuditLogFilter{Action: "delete_sheet"})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

// TestEventRepository_Outbox 测试发件箱状态流转
func TestEventRepository_Outbox(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"evt-1", "evt-2", "evt-3"} {
		require.NoError(t, repo.Create(ctx, &model.EventModel{
			ID:           id,
			ResourceType: "daily_task",
			ResourceID:   "t1",
			Type:         "daily_task.created",
			Data:         datatypes.JSON(`{}`),
			Status:       model.EventStatusPending,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
			UpdatedAt:    base,
		}))
	}

	require.NoError(t, repo.UpdateStatus(ctx, "evt-1", model.EventStatusSuccess, 0, base.Add(time.Minute)))
	require.NoError(t, repo.UpdateStatus(ctx, "evt-2", model.EventStatusFailed, 3, base.Add(time.Minute)))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", model.EventStatusSuccess, 0, base), gorm.ErrRecordNotFound)

	var failed model.EventModel
	require.NoError(t, db.First(&failed, "id = ?", "evt-2").Error)
	assert.Equal(t, 3, failed.RetryCount)

	events, err := repo.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-3", events[0].ID)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		model.EventStatusSuccess: 1,
		model.EventStatusFailed:  1,
		model.EventStatusPending: 1,
	}, counts)
}

// TestEventRepository_FindPendingLimit 测试限制待投递事件数量
func TestEventRepository_FindPendingLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &model.EventModel{
			ID:           "evt-" + string(rune('a'+i)),
			ResourceType: "attendance",
			ResourceID:   "r1",
			Type:         "attendance.checked_in",
			Data:         datatypes.JSON(`{}`),
			Status:       model.EventStatusPending,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
			UpdatedAt:    base,
		}))
	}

	events, err := repo.FindPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-a", events[0].ID)
	assert.Equal(t, "evt-b", events[1].ID)
}
