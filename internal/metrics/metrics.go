package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// namespace 所有指标的前缀
const namespace = "office"

var (
	// HTTP 请求计数
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	// HTTP 请求耗时
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 签到签退
	attendanceEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "events_total",
			Help:      "Attendance check-ins and check-outs",
		},
		[]string{"kind"}, // check_in, check_out
	)

	// 单条考勤的工时分布
	workedHours = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "worked_hours",
			Help:      "Hours worked per completed attendance record",
			Buckets:   []float64{1, 2, 4, 6, 8, 9, 10, 12, 16},
		},
	)

	// 每日任务提交
	tasksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_tasks",
			Name:      "created_total",
			Help:      "Daily tasks submitted",
		},
	)

	// 审批决定
	taskDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_tasks",
			Name:      "decisions_total",
			Help:      "Manager decisions on daily tasks",
		},
		[]string{"result"}, // approved, rejected
	)

	// 当前各审批状态的任务数
	tasksByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "daily_tasks",
			Name:      "by_status",
			Help:      "Daily tasks currently in each approval status",
		},
		[]string{"status"},
	)

	// 编辑表条目操作
	editorTaskOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor_sheets",
			Name:      "task_operations_total",
			Help:      "Editor sheet entry operations",
		},
		[]string{"operation"}, // add, update, delete
	)

	// 通知投递结果
	notifyDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries per sink",
		},
		[]string{"sink", "status"},
	)

	// 发件箱中各状态的事件数
	outboxEvents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "outbox_events",
			Help:      "Events in the notification outbox by delivery status",
		},
		[]string{"status"},
	)

	// 备份操作
	backupOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "operations_total",
			Help:      "Backup create, restore and delete operations",
		},
		[]string{"operation", "status"},
	)

	// 最近一次成功备份的时间
	backupLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful backup",
		},
	)

	// 数据库连接池
	dbConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "connections",
			Help:      "Database pool connections by state",
		},
		[]string{"state"}, // in_use, idle, max_open
	)
)

var runtimeOnce sync.Once

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		attendanceEvents,
		workedHours,
		tasksCreated,
		taskDecisions,
		tasksByStatus,
		editorTaskOps,
		notifyDeliveries,
		outboxEvents,
		backupOperations,
		backupLastSuccess,
		dbConnections,
	)

	// 默认注册表可能已经包含运行时指标
	runtimeOnce.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 HTTP 请求,route 为路由模板
func RecordAPIRequest(method, route string, status int, duration float64) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordCheckIn 记录签到
func RecordCheckIn() {
	attendanceEvents.WithLabelValues("check_in").Inc()
}

// RecordCheckOut 记录签退及工时
func RecordCheckOut(hours float64) {
	attendanceEvents.WithLabelValues("check_out").Inc()
	workedHours.Observe(hours)
}

// RecordTaskCreated 记录每日任务提交
func RecordTaskCreated() {
	tasksCreated.Inc()
}

// RecordApproval 记录审批决定
func RecordApproval(result string) {
	taskDecisions.WithLabelValues(result).Inc()
}

// RecordEditorTaskOperation 记录编辑表条目操作
func RecordEditorTaskOperation(operation string) {
	editorTaskOps.WithLabelValues(operation).Inc()
}

// RecordNotification 记录通知投递结果
func RecordNotification(sink string, success bool) {
	notifyDeliveries.WithLabelValues(sink, outcome(success)).Inc()
}

// RecordBackup 记录备份操作,成功的 create 同时刷新最近备份时间
func RecordBackup(operation string, success bool, at time.Time) {
	backupOperations.WithLabelValues(operation, outcome(success)).Inc()
	if success && operation == "create" {
		backupLastSuccess.Set(float64(at.Unix()))
	}
}

// UpdateDatabaseConnections 更新连接池指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	dbConnections.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
	return nil
}

// UpdateTasksByStatus 更新任务审批状态分布
func UpdateTasksByStatus(status string, count float64) {
	tasksByStatus.WithLabelValues(status).Set(count)
}

// UpdateOutboxEvents 更新发件箱状态分布
func UpdateOutboxEvents(status string, count float64) {
	outboxEvents.WithLabelValues(status).Set(count)
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
