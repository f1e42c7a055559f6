package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatisticsController 统计与报表控制器
type StatisticsController struct {
	statsService  service.StatisticsService
	reportService service.ReportService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statsService service.StatisticsService, reportService service.ReportService) *StatisticsController {
	return &StatisticsController{
		statsService:  statsService,
		reportService: reportService,
	}
}

// Attendance 考勤统计
// @Summary      考勤统计
// @Tags         统计
// @Produce      json
// @Param        month query int false "月份 1-12"
// @Param        year query int false "年份"
// @Success      200  {object}  Response{data=service.AttendanceStatistics}
// @Failure      400  {object}  ErrorResponse
// @Router       /statistics/attendance [get]
func (c *StatisticsController) Attendance(ctx *gin.Context) {
	month, year, ok := monthYear(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetAttendanceStatistics(ctx.Request.Context(), month, year)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, stats)
}

// Tasks 任务统计
// @Summary      任务统计
// @Tags         统计
// @Produce      json
// @Param        month query int false "月份 1-12"
// @Param        year query int false "年份"
// @Success      200  {object}  Response{data=service.TaskStatistics}
// @Failure      400  {object}  ErrorResponse
// @Router       /statistics/tasks [get]
func (c *StatisticsController) Tasks(ctx *gin.Context) {
	month, year, ok := monthYear(ctx)
	if !ok {
		return
	}

	stats, err := c.statsService.GetTaskStatistics(ctx.Request.Context(), month, year)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, stats)
}

// MonthlyReport 导出月度 Excel 报表,缺省为当月
// @Summary      月度报表
// @Tags         统计
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        month query int false "月份 1-12"
// @Param        year query int false "年份"
// @Success      200  {file}  file
// @Failure      400  {object}  ErrorResponse
// @Router       /reports/monthly.xlsx [get]
func (c *StatisticsController) MonthlyReport(ctx *gin.Context) {
	month, year, ok := monthYear(ctx)
	if !ok {
		return
	}
	if month == 0 && year == 0 {
		now := time.Now()
		month, year = int(now.Month()), now.Year()
	}

	// 先写入缓冲区,出错时还能返回 JSON 错误
	var buf bytes.Buffer
	if err := c.reportService.WriteMonthlyReport(ctx.Request.Context(), &buf, month, year); err != nil {
		_ = ctx.Error(err)
		return
	}

	filename := fmt.Sprintf("office-report-%04d-%02d.xlsx", year, month)
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
