package container

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/database"
	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/notify"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/mautops/office-gin/internal/service"
	"github.com/mautops/office-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// metricsInterval 业务指标采集间隔
const metricsInterval = 30 * time.Second

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、事件分发、服务和后台任务
type Container struct {
	db              *gorm.DB
	logger          *logrus.Logger
	hub             *websocket.Hub
	dispatcher      *notify.Dispatcher
	auditLog        service.AuditLogService
	attendance      service.AttendanceService
	dailyTasks      service.DailyTaskService
	editorSheets    service.EditorSheetService
	statistics      service.StatisticsService
	reports         service.ReportService
	backupService   *service.BackupService
	backupScheduler *service.BackupScheduler
	collector       *metrics.Collector
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件并启动后台任务
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// 1. 初始化数据库（带重试机制）
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	c := &Container{db: db, logger: logger}

	// 2. WebSocket Hub 与通知分发
	c.hub = websocket.NewHub()
	go c.hub.Run()

	sinks := []notify.Sink{c.hub}
	if cfg.Notify.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.Notify.SlackWebhookURL,
			notify.EventTaskCreated, notify.EventTaskDecided))
	}
	c.dispatcher = notify.NewDispatcher(db, sinks, notify.DispatcherOptions{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
		Logger:    logger,
	})
	c.dispatcher.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if replayed, err := c.dispatcher.ReplayPending(ctx); err != nil {
		logger.WithError(err).Warn("failed to replay pending events")
	} else if replayed > 0 {
		logger.WithField("events", replayed).Info("replayed pending events")
	}

	// 3. 业务服务
	c.auditLog = service.NewAuditLogService(repository.NewAuditLogRepository(db))
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithPublisher(c.dispatcher),
		service.WithAuditLog(c.auditLog),
		service.WithStrictReapproval(cfg.Workflow.StrictReapproval),
	}
	c.attendance = service.NewAttendanceService(db, opts...)
	c.dailyTasks = service.NewDailyTaskService(db, opts...)
	c.editorSheets = service.NewEditorSheetService(db, opts...)
	c.statistics = service.NewStatisticsService(db, opts...)
	c.reports = service.NewReportService(db, c.statistics, opts...)
	c.backupService = service.NewBackupService(db, cfg.Backup.Dir, opts...)

	// 4. 定时备份
	if cfg.Backup.Enabled {
		c.backupScheduler = service.NewBackupScheduler(c.backupService, &service.BackupScheduleConfig{
			Schedule:      cfg.Backup.Schedule,
			RetentionDays: cfg.Backup.RetentionDays,
		}, service.WithLogger(logger))
		if err := c.backupScheduler.Start(); err != nil {
			c.backupScheduler = nil
			_ = c.Close()
			return nil, fmt.Errorf("failed to start backup scheduler: %w", err)
		}
	}

	// 5. 指标采集
	c.collector = metrics.NewCollector(db, metricsInterval, logger)
	c.collector.Start()

	return c, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Dispatcher 获取事件分发器
func (c *Container) Dispatcher() *notify.Dispatcher {
	return c.dispatcher
}

// AuditLog 获取审计日志服务
func (c *Container) AuditLog() service.AuditLogService {
	return c.auditLog
}

// Attendance 获取考勤服务
func (c *Container) Attendance() service.AttendanceService {
	return c.attendance
}

// DailyTasks 获取每日任务服务
func (c *Container) DailyTasks() service.DailyTaskService {
	return c.dailyTasks
}

// EditorSheets 获取编辑表服务
func (c *Container) EditorSheets() service.EditorSheetService {
	return c.editorSheets
}

// Statistics 获取统计服务
func (c *Container) Statistics() service.StatisticsService {
	return c.statistics
}

// Reports 获取报表服务
func (c *Container) Reports() service.ReportService {
	return c.reports
}

// BackupService 获取备份服务
func (c *Container) BackupService() *service.BackupService {
	return c.backupService
}

// BackupScheduler 获取备份调度器,未启用时为 nil
func (c *Container) BackupScheduler() *service.BackupScheduler {
	return c.backupScheduler
}

// Close 关闭容器,按启动的逆序停止后台任务并释放资源
func (c *Container) Close() error {
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.backupScheduler != nil {
		c.backupScheduler.Stop()
	}
	if c.dispatcher != nil {
		c.dispatcher.Stop()
	}
	if c.hub != nil {
		c.hub.Close()
	}
	if c.db != nil {
		return database.Close(c.db)
	}
	return nil
}
