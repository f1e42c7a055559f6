package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackSink 通过 Incoming Webhook 推送到 Slack
type SlackSink struct {
	webhookURL string
	types      map[string]bool
}

// NewSlackSink 创建 Slack 投递目标
// types 为空时推送所有事件
func NewSlackSink(webhookURL string, types ...string) *SlackSink {
	filter := make(map[string]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	return &SlackSink{webhookURL: webhookURL, types: filter}
}

// Name 投递目标名称
func (s *SlackSink) Name() string {
	return "slack"
}

// Send 推送事件
func (s *SlackSink) Send(ctx context.Context, evt *Event) error {
	if len(s.types) > 0 && !s.types[evt.Type] {
		return nil
	}

	msg := &slack.WebhookMessage{
		Text: FormatMessage(evt),
		Attachments: []slack.Attachment{{
			Fallback: evt.Summary,
			Fields: []slack.AttachmentField{
				{Title: "Employee", Value: evt.EmployeeID, Short: true},
				{Title: "Resource", Value: evt.ResourceType + "/" + evt.ResourceID, Short: true},
			},
			Footer: evt.OccurredAt.Format("2006-01-02 15:04:05"),
		}},
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	return nil
}

// FormatMessage 生成事件的文本描述
func FormatMessage(evt *Event) string {
	if evt.Summary != "" {
		return fmt.Sprintf("[%s] %s", evt.Type, evt.Summary)
	}
	return fmt.Sprintf("[%s] %s %s", evt.Type, evt.ResourceType, evt.ResourceID)
}
