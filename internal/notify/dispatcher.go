package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DispatcherOptions 分发器配置
type DispatcherOptions struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	Backoff    time.Duration
	Logger     *logrus.Logger
}

// Dispatcher 基于发件箱的事件分发器
// 事件先写入 events 表,再由 worker 异步投递到各个 Sink
type Dispatcher struct {
	eventRepo  repository.EventRepository
	sinks      []Sink
	queue      chan *delivery
	workers    int
	maxRetries int
	backoff    time.Duration
	logger     *logrus.Logger
	stop       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

type delivery struct {
	event  *Event
	record *model.EventModel
}

// NewDispatcher 创建事件分发器
func NewDispatcher(db *gorm.DB, sinks []Sink, opts DispatcherOptions) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Dispatcher{
		eventRepo:  repository.NewEventRepository(db),
		sinks:      sinks,
		queue:      make(chan *delivery, opts.QueueSize),
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
		stop:       make(chan struct{}),
	}
}

// Start 启动 worker
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Stop 停止分发器,等待进行中的投递完成
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		d.wg.Wait()
	})
}

// Publish 持久化事件并入队
func (d *Dispatcher) Publish(ctx context.Context, evt *Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	record, err := d.persist(ctx, evt)
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":  evt.Type,
			"resource_id": evt.ResourceID,
		}).Error("failed to persist event")
		return
	}

	select {
	case d.queue <- &delivery{event: evt, record: record}:
	default:
		// 队列满时不阻塞调用方,事件保持 pending 状态
		d.logger.WithFields(logrus.Fields{
			"event_type":  evt.Type,
			"resource_id": evt.ResourceID,
		}).Warn("event queue full, delivery deferred")
	}
}

// persist 写入发件箱
func (d *Dispatcher) persist(ctx context.Context, evt *Event) (*model.EventModel, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	now := time.Now()
	record := &model.EventModel{
		ID:           evt.ID,
		ResourceType: evt.ResourceType,
		ResourceID:   evt.ResourceID,
		Type:         evt.Type,
		Data:         data,
		Status:       model.EventStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := d.eventRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	return record, nil
}

// worker 事件投递 worker
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case item := <-d.queue:
			d.deliver(item)
		case <-d.stop:
			return
		}
	}
}

// deliver 投递到所有 Sink,失败时指数退避重试
func (d *Dispatcher) deliver(item *delivery) {
	ctx := context.Background()
	pending := d.sinks
	backoff := d.backoff

	for attempt := 0; attempt < d.maxRetries; attempt++ {
		var failed []Sink
		for _, sink := range pending {
			if err := sink.Send(ctx, item.event); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"sink":       sink.Name(),
					"event_type": item.event.Type,
					"attempt":    attempt + 1,
				}).Warn("notification delivery failed")
				metrics.RecordNotification(sink.Name(), false)
				failed = append(failed, sink)
				continue
			}
			metrics.RecordNotification(sink.Name(), true)
		}

		if len(failed) == 0 {
			d.markStatus(ctx, item.record, model.EventStatusSuccess)
			return
		}

		pending = failed
		item.record.RetryCount++
		if attempt < d.maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-d.stop:
				d.markStatus(ctx, item.record, model.EventStatusPending)
				return
			}
		}
	}

	d.markStatus(ctx, item.record, model.EventStatusFailed)
}

// markStatus 更新事件投递状态
func (d *Dispatcher) markStatus(ctx context.Context, record *model.EventModel, status string) {
	record.Status = status
	record.UpdatedAt = time.Now()
	if err := d.eventRepo.UpdateStatus(ctx, record.ID, status, record.RetryCount, record.UpdatedAt); err != nil {
		d.logger.WithError(err).WithField("event_id", record.ID).Error("failed to update event status")
	}
}

// ReplayPending 重新入队未投递的事件,最多填满队列,服务启动时调用
func (d *Dispatcher) ReplayPending(ctx context.Context) (int, error) {
	records, err := d.eventRepo.FindPending(ctx, cap(d.queue))
	if err != nil {
		return 0, fmt.Errorf("failed to load pending events: %w", err)
	}

	queued := 0
	for _, record := range records {
		var evt Event
		if err := json.Unmarshal(record.Data, &evt); err != nil {
			d.logger.WithError(err).WithField("event_id", record.ID).Warn("skipping undecodable event")
			d.markStatus(ctx, record, model.EventStatusFailed)
			continue
		}

		select {
		case d.queue <- &delivery{event: &evt, record: record}:
			queued++
		default:
			return queued, nil
		}
	}
	return queued, nil
}
