package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/database"
	"gorm.io/gorm"
)

// ClientCounter 返回在线连接数
type ClientCounter interface {
	GetClientCount() int
}

// HealthController 健康检查控制器
type HealthController struct {
	db      *gorm.DB
	clients ClientCounter
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, clients ClientCounter) *HealthController {
	return &HealthController{
		db:      db,
		clients: clients,
	}
}

// Check 健康检查
// @Summary      健康检查
// @Tags         系统管理
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if c.db != nil {
		if err := database.CheckHealth(ctx.Request.Context(), c.db); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	body := gin.H{
		"status":    status,
		"version":   Version,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}
	if c.clients != nil {
		body["websocket_clients"] = c.clients.GetClientCount()
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	ctx.JSON(httpStatus, body)
}
