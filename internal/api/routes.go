package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/service"
	"github.com/mautops/office-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config        *config.Config
	DB            *gorm.DB
	Logger        *logrus.Logger
	Hub           *websocket.Hub // 为空时不注册 /ws
	Tracing       *Tracing
	Attendance    service.AttendanceService
	DailyTasks    service.DailyTaskService
	EditorSheets  service.EditorSheetService
	Statistics    service.StatisticsService
	Reports       service.ReportService
	BackupService *service.BackupService  // 为空时不注册 /backups
	AuditLog      service.AuditLogService // 为空时不注册 /audit-logs
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Logger != nil {
		SetLogger(deps.Logger)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.ForceHTTPS {
		router.Use(HTTPSRedirectMiddleware())
	}
	router.Use(RequestIDMiddleware())
	router.Use(deps.Tracing.Middleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(VersionMiddleware())
	router.Use(ErrorHandlerMiddleware())

	var clients ClientCounter
	if deps.Hub != nil {
		clients = deps.Hub
		router.GET("/ws", websocket.WebSocketHandler(deps.Hub, GetLogger()))
	}

	healthController := NewHealthController(deps.DB, clients)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	attendance := NewAttendanceController(deps.Attendance)
	attendanceGroup := v1.Group("/attendance")
	{
		attendanceGroup.POST("/check-in", attendance.CheckIn)
		attendanceGroup.POST("/check-out", attendance.CheckOut)
		attendanceGroup.GET("/employee/:employeeId/today", attendance.Today)
		attendanceGroup.GET("/employee/:employeeId", attendance.ListByEmployee)
	}

	tasks := NewDailyTaskController(deps.DailyTasks)
	taskGroup := v1.Group("/tasks")
	{
		taskGroup.POST("/create", tasks.Create)
		taskGroup.PUT("/approve", tasks.Approve)
		taskGroup.GET("/pending", tasks.Pending)
		taskGroup.GET("/employee/:employeeId", tasks.ListByEmployee)
		taskGroup.GET("/:id", tasks.Get)
		taskGroup.GET("/:id/history", tasks.History)
	}

	sheets := NewEditorSheetController(deps.EditorSheets)
	sheetGroup := v1.Group("/editor-sheets")
	{
		sheetGroup.POST("/create", sheets.Create)
		sheetGroup.GET("/all", sheets.ListAll)
		sheetGroup.GET("/employee/:employeeId", sheets.ListByEmployee)
		sheetGroup.GET("/:sheetId", sheets.Get)
		sheetGroup.DELETE("/:sheetId", sheets.Delete)
		sheetGroup.POST("/:sheetId/add-task", sheets.AddTask)
		sheetGroup.PUT("/:sheetId/update-task", sheets.UpdateTask)
		sheetGroup.DELETE("/:sheetId/delete-task", sheets.DeleteTask)
	}

	if deps.Statistics != nil {
		stats := NewStatisticsController(deps.Statistics, deps.Reports)
		v1.GET("/statistics/attendance", stats.Attendance)
		v1.GET("/statistics/tasks", stats.Tasks)
		if deps.Reports != nil {
			v1.GET("/reports/monthly.xlsx", stats.MonthlyReport)
		}
	}

	if deps.AuditLog != nil {
		v1.GET("/audit-logs", NewAuditLogController(deps.AuditLog).List)
	}

	if deps.BackupService != nil {
		backups := NewBackupController(deps.BackupService)
		backupGroup := v1.Group("/backups")
		{
			backupGroup.POST("", backups.CreateBackup)
			backupGroup.GET("", backups.ListBackups)
			backupGroup.GET("/:filename", backups.DownloadBackup)
			backupGroup.POST("/:filename/restore", backups.RestoreBackup)
			backupGroup.DELETE("/:filename", backups.DeleteBackup)
		}
	}

	return router
}
