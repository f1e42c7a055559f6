package service

import (
	"time"

	"github.com/mautops/office-gin/internal/notify"
	"github.com/sirupsen/logrus"
)

// Clock 返回当前时间
type Clock func() time.Time

// Option 服务可选配置
type Option func(*options)

type options struct {
	clock            Clock
	logger           *logrus.Logger
	publisher        notify.Publisher
	auditLog         AuditLogService
	strictReapproval bool
}

// WithClock 注入时钟
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger 注入日志器
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPublisher 注入事件发布者
func WithPublisher(publisher notify.Publisher) Option {
	return func(o *options) {
		if publisher != nil {
			o.publisher = publisher
		}
	}
}

// WithAuditLog 注入审计日志服务
func WithAuditLog(auditLog AuditLogService) Option {
	return func(o *options) {
		o.auditLog = auditLog
	}
}

// WithStrictReapproval 已决定的任务不允许再次审批
func WithStrictReapproval(strict bool) Option {
	return func(o *options) {
		o.strictReapproval = strict
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		clock:     time.Now,
		logger:    logrus.StandardLogger(),
		publisher: notify.NopPublisher{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// startOfDay 返回所在日期的零点
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthRange 月份查询窗口,[From, To)
type MonthRange struct {
	From time.Time
	To   time.Time
}

// NewMonthRange 根据年月构建查询窗口
// 年月都为 0 时返回 nil,表示不过滤
func NewMonthRange(month, year int, loc *time.Location) (*MonthRange, error) {
	if month == 0 && year == 0 {
		return nil, nil
	}
	if month < 1 || month > 12 {
		return nil, NewValidationError("month must be between 1 and 12")
	}
	if year < 1 {
		return nil, NewValidationError("year must be a positive number")
	}
	if loc == nil {
		loc = time.Local
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return &MonthRange{From: from, To: from.AddDate(0, 1, 0)}, nil
}
