package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDailyTask(id, employeeID string, date time.Time, status string) *model.DailyTaskModel {
	return &model.DailyTaskModel{
		ID:             id,
		EmployeeID:     employeeID,
		Date:           date,
		Project:        "Atlas",
		WorkingTime:    "9-6",
		TaskDone:       "wrote docs",
		ResearchDone:   "none",
		Remarks:        model.TaskRemarks{TimeTaken: 8, TimeExpected: 6, Reason: "meetings"},
		ApprovalStatus: status,
		CreatedAt:      date,
		UpdatedAt:      date,
	}
}

// TestDailyTaskRepository_CreateAndFind 测试创建并查找任务
func TestDailyTaskRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDailyTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDailyTask("t1", "E1", day(2024, 3, 5), model.ApprovalStatusPending)))

	task, err := repo.FindByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "meetings", task.Remarks.Reason)
	assert.Equal(t, 8.0, task.Remarks.TimeTaken)

	task, err = repo.FindByEmployeeAndDate(ctx, "E1", day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	err = repo.Create(ctx, newDailyTask("t2", "E1", day(2024, 3, 5), model.ApprovalStatusPending))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

// TestDailyTaskRepository_FindByFilter 测试按员工、状态、日期过滤
func TestDailyTaskRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDailyTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDailyTask("t1", "E1", day(2024, 3, 1), model.ApprovalStatusPending)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t2", "E1", day(2024, 3, 20), model.ApprovalStatusApproved)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t3", "E2", day(2024, 3, 10), model.ApprovalStatusPending)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t4", "E1", day(2024, 4, 1), model.ApprovalStatusPending)))

	pending := model.ApprovalStatusPending
	tasks, err := repo.FindByFilter(ctx, &repository.DailyTaskFilter{ApprovalStatus: &pending})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "t4", tasks[0].ID)
	assert.Equal(t, "t3", tasks[1].ID)
	assert.Equal(t, "t1", tasks[2].ID)

	employeeID := "E1"
	from := day(2024, 3, 1)
	to := day(2024, 4, 1)
	tasks, err = repo.FindByFilter(ctx, &repository.DailyTaskFilter{EmployeeID: &employeeID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.Equal(t, "t1", tasks[1].ID)
}

// TestDailyTaskRepository_UpdateDecision 测试写入审批结论
func TestDailyTaskRepository_UpdateDecision(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDailyTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDailyTask("t1", "E1", day(2024, 3, 5), model.ApprovalStatusPending)))

	now := time.Date(2024, 3, 6, 10, 0, 0, 0, time.Local)
	updated, err := repo.UpdateDecision(ctx, "t1", &repository.TaskDecision{
		ApprovalStatus: model.ApprovalStatusApproved,
		ApprovedBy:     "M9",
		ApprovedAt:     now,
		ManagerRemarks: "ok",
		OnlyPending:    true,
	})
	require.NoError(t, err)
	assert.True(t, updated)

	task, err := repo.FindByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, task.ApprovalStatus)
	assert.Equal(t, "M9", task.ApprovedBy)
	assert.Equal(t, "ok", task.ManagerRemarks)
	assert.Equal(t, "", task.ManagerComplains)
	// 其他字段不变
	assert.Equal(t, "wrote docs", task.TaskDone)
	assert.Equal(t, "Atlas", task.Project)

	// 已决定的任务在 OnlyPending 下不会被覆盖
	updated, err = repo.UpdateDecision(ctx, "t1", &repository.TaskDecision{
		ApprovalStatus: model.ApprovalStatusRejected,
		ApprovedBy:     "M9",
		ApprovedAt:     now,
		OnlyPending:    true,
	})
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = repo.UpdateDecision(ctx, "t1", &repository.TaskDecision{
		ApprovalStatus: model.ApprovalStatusRejected,
		ApprovedBy:     "M9",
		ApprovedAt:     now,
	})
	require.NoError(t, err)
	assert.True(t, updated)
}

// TestDailyTaskRepository_CountByStatus 测试按状态统计
func TestDailyTaskRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDailyTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDailyTask("t1", "E1", day(2024, 3, 1), model.ApprovalStatusPending)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t2", "E2", day(2024, 3, 1), model.ApprovalStatusApproved)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t3", "E3", day(2024, 3, 1), model.ApprovalStatusApproved)))
	require.NoError(t, repo.Create(ctx, newDailyTask("t4", "E1", day(2024, 5, 1), model.ApprovalStatusRejected)))

	counts, err := repo.CountByStatus(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.ApprovalStatusPending])
	assert.Equal(t, int64(2), counts[model.ApprovalStatusApproved])
	assert.Equal(t, int64(1), counts[model.ApprovalStatusRejected])

	from := day(2024, 3, 1)
	to := day(2024, 4, 1)
	counts, err = repo.CountByStatus(ctx, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[model.ApprovalStatusRejected])
	assert.Equal(t, int64(2), counts[model.ApprovalStatusApproved])
}
