package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/repository"
	"github.com/mautops/office-gin/internal/service"
)

// AuditLogQuery 审计日志查询参数
type AuditLogQuery struct {
	UserID       string     `form:"user_id"`
	Action       string     `form:"action"`
	ResourceType string     `form:"resource_type"`
	ResourceID   string     `form:"resource_id"`
	From         *time.Time `form:"from" time_format:"2006-01-02"`
	To           *time.Time `form:"to" time_format:"2006-01-02"`
	Limit        int        `form:"limit" binding:"min=0,max=500"`
}

// AuditLogController 审计日志控制器
type AuditLogController struct {
	auditLog service.AuditLogService
}

// NewAuditLogController 创建审计日志控制器
func NewAuditLogController(auditLog service.AuditLogService) *AuditLogController {
	return &AuditLogController{auditLog: auditLog}
}

// List 查询审计日志
// @Summary      查询审计日志
// @Tags         审计
// @Produce      json
// @Param        user_id query string false "操作人"
// @Param        action query string false "动作"
// @Param        resource_type query string false "资源类型"
// @Param        resource_id query string false "资源 ID"
// @Param        from query string false "起始日期 YYYY-MM-DD(含)"
// @Param        to query string false "结束日期 YYYY-MM-DD(不含)"
// @Param        limit query int false "条数,默认 100,最多 500"
// @Success      200  {object}  Response{data=[]model.AuditLogModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /audit-logs [get]
func (c *AuditLogController) List(ctx *gin.Context) {
	var q AuditLogQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		_ = ctx.Error(WrapError(err, http.StatusBadRequest, "invalid query"))
		return
	}

	logs, err := c.auditLog.List(ctx.Request.Context(), repository.AuditLogFilter{
		UserID:       q.UserID,
		Action:       q.Action,
		ResourceType: q.ResourceType,
		ResourceID:   q.ResourceID,
		From:         q.From,
		To:           q.To,
		Limit:        q.Limit,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, logs)
}
