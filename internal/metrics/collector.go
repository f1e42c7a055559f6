package metrics

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Collector 指标收集器
type Collector struct {
	db        *gorm.DB
	taskRepo  repository.DailyTaskRepository
	eventRepo repository.EventRepository
	interval  time.Duration
	logger    *logrus.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration, logger *logrus.Logger) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Collector{
		db:        db,
		taskRepo:  repository.NewDailyTaskRepository(db),
		eventRepo: repository.NewEventRepository(db),
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	c.CollectOnce(c.ctx)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce(c.ctx)
		}
	}
}

// CollectOnce 采集一次连接池、任务状态和发件箱状态
func (c *Collector) CollectOnce(ctx context.Context) {
	if err := UpdateDatabaseConnections(c.db); err != nil {
		c.logger.WithError(err).Warn("failed to collect database connection metrics")
	}

	counts, err := c.taskRepo.CountByStatus(ctx, nil, nil)
	if err != nil {
		c.logger.WithError(err).Warn("failed to collect task status metrics")
	} else {
		for _, status := range []string{model.ApprovalStatusPending, model.ApprovalStatusApproved, model.ApprovalStatusRejected} {
			UpdateTasksByStatus(status, float64(counts[status]))
		}
	}

	outbox, err := c.eventRepo.CountByStatus(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("failed to collect outbox metrics")
		return
	}
	for _, status := range []string{model.EventStatusPending, model.EventStatusSuccess, model.EventStatusFailed} {
		UpdateOutboxEvents(status, float64(outbox[status]))
	}
}
