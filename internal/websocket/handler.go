package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 跨域由 CORS 中间件负责
		return true
	},
}

// WebSocketHandler WebSocket 处理器
// employee_id 订阅本人事件, role=manager 订阅经理频道
func WebSocketHandler(hub *Hub, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.Query("employee_id")
		manager := c.Query("role") == "manager"
		if employeeID == "" && !manager {
			c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id or role=manager is required"})
			return
		}

		topics := []string{employeeID}
		if manager {
			topics = append(topics, TopicManagers)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已写入错误响应
			return
		}

		client := NewClient(uuid.New().String(), topics, hub, conn, logger)
		if !hub.Add(client) {
			// 服务正在关闭
			_ = conn.WriteMessage(gorillaWS.CloseMessage,
				gorillaWS.FormatCloseMessage(gorillaWS.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.ReadPump()
		go client.WritePump()
	}
}
