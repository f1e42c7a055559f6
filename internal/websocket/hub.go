package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mautops/office-gin/internal/notify"
)

// TopicManagers 经理频道,接收所有事件
const TopicManagers = "managers"

// Message 推送给客户端的消息
type Message struct {
	Type  string        `json:"type"`
	Event *notify.Event `json:"event"`
}

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	quit     chan struct{}
	quitOnce sync.Once

	// 保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run 运行 Hub,直到 Close 被调用
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			select {
			case <-h.quit:
				// 与 Close 竞争时直接断开
				close(client.Send)
			default:
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				h.remove(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Close 停止 Hub 并断开所有客户端
func (h *Hub) Close() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

// Add 注册客户端,Hub 已关闭时返回 false
func (h *Hub) Add(client *Client) bool {
	select {
	case <-h.quit:
		return false
	default:
	}
	select {
	case h.Register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// remove 注销客户端,调用方持有写锁
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// deliver 非阻塞发送,发送队列满的客户端被断开,调用方持有写锁
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.remove(client)
	}
}

// BroadcastToTopics 向订阅了任一主题的客户端推送一次消息,返回送达的客户端数
func (h *Hub) BroadcastToTopics(message []byte, topics ...string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for client := range h.clients {
		for _, topic := range topics {
			if topic != "" && client.Subscribed(topic) {
				h.deliver(client, message)
				sent++
				break
			}
		}
	}
	return sent
}

// Name 投递目标名称
func (h *Hub) Name() string {
	return "websocket"
}

// Send 把事件推送给相关员工和经理频道
func (h *Hub) Send(_ context.Context, evt *notify.Event) error {
	message, err := json.Marshal(&Message{Type: evt.Type, Event: evt})
	if err != nil {
		return fmt.Errorf("failed to marshal websocket message: %w", err)
	}
	h.BroadcastToTopics(message, TopicManagers, evt.EmployeeID)
	return nil
}

// HasClient 检查客户端是否存在
func (h *Hub) HasClient(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.ID == clientID {
			return true
		}
	}
	return false
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
