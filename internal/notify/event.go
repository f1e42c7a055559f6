package notify

import (
	"context"
	"time"
)

// 事件类型
const (
	EventCheckedIn          = "attendance.checked_in"
	EventCheckedOut         = "attendance.checked_out"
	EventTaskCreated        = "daily_task.created"
	EventTaskDecided        = "daily_task.decided"
	EventEditorSheetChanged = "editor_sheet.changed"
)

// 资源类型
const (
	ResourceAttendance  = "attendance"
	ResourceDailyTask   = "daily_task"
	ResourceEditorSheet = "editor_sheet"
)

// Event 通知事件
type Event struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	EmployeeID   string      `json:"employee_id"` // 事件相关员工,用于定向推送
	Summary      string      `json:"summary"`
	Data         interface{} `json:"data,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Publisher 事件发布者
// 发布失败不影响业务操作,实现方自行记录日志
type Publisher interface {
	Publish(ctx context.Context, event *Event)
}

// Sink 事件投递目标
type Sink interface {
	Name() string
	Send(ctx context.Context, event *Event) error
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Publish 什么都不做
func (NopPublisher) Publish(context.Context, *Event) {}

// RecordingPublisher 在内存中记录发布的事件
type RecordingPublisher struct {
	Events []*Event
}

// Publish 记录事件
func (p *RecordingPublisher) Publish(_ context.Context, event *Event) {
	p.Events = append(p.Events, event)
}

// Types 返回已记录事件的类型
func (p *RecordingPublisher) Types() []string {
	types := make([]string, 0, len(p.Events))
	for _, evt := range p.Events {
		types = append(types, evt.Type)
	}
	return types
}
