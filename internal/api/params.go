package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/utils"
)

// pathID 读取并校验路径参数,失败时上报 400
func pathID(ctx *gin.Context, name string) (string, bool) {
	id := ctx.Param(name)
	if err := utils.ValidateID(id); err != nil {
		_ = ctx.Error(WrapError(err, http.StatusBadRequest, "invalid "+name))
		return "", false
	}
	return id, true
}

// monthYear 读取 month/year 查询参数,失败时上报 400
func monthYear(ctx *gin.Context) (int, int, bool) {
	month, year, err := utils.ParseMonthYear(ctx.Query("month"), ctx.Query("year"))
	if err != nil {
		_ = ctx.Error(WrapError(err, http.StatusBadRequest, "invalid query"))
		return 0, 0, false
	}
	return month, year, true
}

// bindJSON 解析请求体,失败时上报 400
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		_ = ctx.Error(WrapError(err, http.StatusBadRequest, "invalid request"))
		return false
	}
	return true
}
