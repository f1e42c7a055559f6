package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

// AttendanceController 考勤控制器
type AttendanceController struct {
	attendanceService service.AttendanceService
}

// NewAttendanceController 创建考勤控制器
func NewAttendanceController(attendanceService service.AttendanceService) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
	}
}

// CheckIn 签到
// @Summary      签到
// @Description  为员工创建当天的考勤记录,同一天只能签到一次
// @Tags         考勤
// @Accept       json
// @Produce      json
// @Param        request body service.CheckInRequest true "签到信息"
// @Success      200  {object}  Response{data=model.AttendanceRecordModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /attendance/check-in [post]
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	var req service.CheckInRequest
	if !bindJSON(ctx, &req) {
		return
	}

	record, err := c.attendanceService.CheckIn(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, record)
}

// CheckOut 签退
// @Summary      签退
// @Tags         考勤
// @Accept       json
// @Produce      json
// @Param        request body service.CheckOutRequest true "签退信息"
// @Success      200  {object}  Response{data=model.AttendanceRecordModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /attendance/check-out [post]
func (c *AttendanceController) CheckOut(ctx *gin.Context) {
	var req service.CheckOutRequest
	if !bindJSON(ctx, &req) {
		return
	}

	record, err := c.attendanceService.CheckOut(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, record)
}

// Today 获取员工当天的考勤记录
// @Summary      当天考勤
// @Tags         考勤
// @Produce      json
// @Param        employeeId path string true "员工 ID"
// @Success      200  {object}  Response{data=model.AttendanceRecordModel}
// @Failure      404  {object}  ErrorResponse
// @Router       /attendance/employee/{employeeId}/today [get]
func (c *AttendanceController) Today(ctx *gin.Context) {
	employeeID, ok := pathID(ctx, "employeeId")
	if !ok {
		return
	}

	record, err := c.attendanceService.GetToday(ctx.Request.Context(), employeeID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, record)
}

// ListByEmployee 员工考勤历史
// @Summary      考勤历史
// @Tags         考勤
// @Produce      json
// @Param        employeeId path string true "员工 ID"
// @Param        month query int false "月份 1-12"
// @Param        year query int false "年份"
// @Success      200  {object}  Response{data=[]model.AttendanceRecordModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /attendance/employee/{employeeId} [get]
func (c *AttendanceController) ListByEmployee(ctx *gin.Context) {
	employeeID, ok := pathID(ctx, "employeeId")
	if !ok {
		return
	}
	month, year, ok := monthYear(ctx)
	if !ok {
		return
	}

	records, err := c.attendanceService.ListByEmployee(ctx.Request.Context(), employeeID, month, year)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, records)
}
