package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mautops/office-gin/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSlackSink_Send 测试推送到 Slack Webhook
func TestSlackSink_Send(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := notify.NewSlackSink(server.URL)
	err := sink.Send(context.Background(), &notify.Event{
		Type:         notify.EventTaskDecided,
		ResourceType: notify.ResourceDailyTask,
		ResourceID:   "task-1",
		EmployeeID:   "E1",
		Summary:      "task approved by M1",
		OccurredAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "[daily_task.decided] task approved by M1", payload["text"])
}

// TestSlackSink_Filter 测试事件类型过滤
func TestSlackSink_Filter(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := notify.NewSlackSink(server.URL, notify.EventTaskDecided)
	require.NoError(t, sink.Send(context.Background(), &notify.Event{Type: notify.EventCheckedIn}))
	assert.Equal(t, 0, calls)

	require.NoError(t, sink.Send(context.Background(), &notify.Event{Type: notify.EventTaskDecided}))
	assert.Equal(t, 1, calls)
}

// TestSlackSink_ErrorStatus 测试 Webhook 返回错误状态
func TestSlackSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := notify.NewSlackSink(server.URL)
	assert.Error(t, sink.Send(context.Background(), &notify.Event{Type: notify.EventCheckedIn}))
	assert.Equal(t, "slack", sink.Name())
}

// TestFormatMessage 测试消息格式
func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "[attendance.checked_in] attendance att-1", notify.FormatMessage(&notify.Event{
		Type: notify.EventCheckedIn, ResourceType: notify.ResourceAttendance, ResourceID: "att-1",
	}))
}
