package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 把 handler 通过 c.Error 上报的错误写成统一响应
// 控制器只上报错误,不直接写错误响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}
		writeServiceError(c, err)
	}
}

// WrapError 包装请求解析错误,Detail 保留原始信息
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// StatusFor 业务错误到 HTTP 状态码
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindInvalidState:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError 按错误分类写出响应,存储错误不向客户端暴露细节
func writeServiceError(c *gin.Context, err error) {
	status := StatusFor(err)

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		GetLogger().WithError(err).WithField("request_id", c.GetString("request_id")).Error("unhandled error")
		Error(c, status, "internal server error", "")
		return
	}

	if svcErr.Kind == service.KindStorage {
		GetLogger().WithError(err).WithField("request_id", c.GetString("request_id")).Error("storage error")
		Error(c, status, svcErr.Message, "")
		return
	}
	Error(c, status, svcErr.Message, string(svcErr.Kind))
}
