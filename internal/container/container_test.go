package container_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/container"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(dir, "office.db")
	cfg.Database.MaxOpenConns = 1
	cfg.Database.MaxIdleConns = 1
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestContainer_NewContainer 测试创建依赖注入容器
func TestContainer_NewContainer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.Enabled = true
	cfg.Backup.Schedule = "@every 1h"

	c, err := container.NewContainer(cfg, quietLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.DB())
	assert.NotNil(t, c.Hub())
	assert.NotNil(t, c.Dispatcher())
	assert.NotNil(t, c.AuditLog())
	assert.NotNil(t, c.Attendance())
	assert.NotNil(t, c.DailyTasks())
	assert.NotNil(t, c.EditorSheets())
	assert.NotNil(t, c.Statistics())
	assert.NotNil(t, c.Reports())
	assert.Equal(t, cfg.Backup.Dir, c.BackupService().BackupDir())
	require.NotNil(t, c.BackupScheduler())
	assert.Equal(t, "@every 1h", c.BackupScheduler().Config().Schedule)
}

// TestContainer_ServicesShareOutbox 测试服务写入审计日志和发件箱
func TestContainer_ServicesShareOutbox(t *testing.T) {
	c, err := container.NewContainer(testConfig(t), quietLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	record, err := c.Attendance().CheckIn(ctx, &service.CheckInRequest{EmployeeID: "E1", EmployeeName: "Asha"})
	require.NoError(t, err)

	var events int64
	require.NoError(t, c.DB().Model(&model.EventModel{}).Where("resource_id = ?", record.ID).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	logs, err := c.AuditLog().ListForResource(ctx, "attendance", record.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.ActionCheckIn, logs[0].Action)
	assert.Nil(t, c.BackupScheduler())
}

// TestContainer_InvalidBackupSchedule 测试无效的备份计划
func TestContainer_InvalidBackupSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.Enabled = true
	cfg.Backup.Schedule = "every night"

	c, err := container.NewContainer(cfg, quietLogger())
	assert.Error(t, err)
	assert.Nil(t, c)
}
