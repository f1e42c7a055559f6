package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

// DailyTaskController 每日任务控制器
type DailyTaskController struct {
	taskService service.DailyTaskService
}

// NewDailyTaskController 创建每日任务控制器
func NewDailyTaskController(taskService service.DailyTaskService) *DailyTaskController {
	return &DailyTaskController{
		taskService: taskService,
	}
}

// Create 提交每日任务
// @Summary      提交每日任务
// @Description  每个员工每天只能提交一条任务
// @Tags         每日任务
// @Accept       json
// @Produce      json
// @Param        request body service.CreateDailyTaskRequest true "任务信息"
// @Success      201  {object}  Response{data=model.DailyTaskModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/create [post]
func (c *DailyTaskController) Create(ctx *gin.Context) {
	var req service.CreateDailyTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}

	task, err := c.taskService.CreateTask(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, task)
}

// Approve 审批每日任务
// @Summary      审批每日任务
// @Tags         每日任务
// @Accept       json
// @Produce      json
// @Param        request body service.ApproveDailyTaskRequest true "审批信息"
// @Success      200  {object}  Response{data=model.DailyTaskModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/approve [put]
func (c *DailyTaskController) Approve(ctx *gin.Context) {
	var req service.ApproveDailyTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}

	task, err := c.taskService.ApproveTask(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, task)
}

// Pending 待审批任务
// @Summary      待审批任务
// @Tags         每日任务
// @Produce      json
// @Success      200  {object}  Response{data=[]model.DailyTaskModel}
// @Router       /tasks/pending [get]
func (c *DailyTaskController) Pending(ctx *gin.Context) {
	tasks, err := c.taskService.ListPendingTasks(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, tasks)
}

// ListByEmployee 员工任务列表
// @Summary      员工任务列表
// @Tags         每日任务
// @Produce      json
// @Param        employeeId path string true "员工 ID"
// @Param        month query int false "月份 1-12"
// @Param        year query int false "年份"
// @Success      200  {object}  Response{data=[]model.DailyTaskModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /tasks/employee/{employeeId} [get]
func (c *DailyTaskController) ListByEmployee(ctx *gin.Context) {
	employeeID, ok := pathID(ctx, "employeeId")
	if !ok {
		return
	}
	month, year, ok := monthYear(ctx)
	if !ok {
		return
	}

	tasks, err := c.taskService.ListTasksForEmployee(ctx.Request.Context(), employeeID, month, year)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, tasks)
}

// Get 任务详情
// @Summary      任务详情
// @Tags         每日任务
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response{data=model.DailyTaskModel}
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
func (c *DailyTaskController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	task, err := c.taskService.GetTask(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, task)
}

// History 任务审批历史
// @Summary      审批历史
// @Tags         每日任务
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response{data=[]model.ApprovalRecordModel}
// @Router       /tasks/{id}/history [get]
func (c *DailyTaskController) History(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	records, err := c.taskService.ApprovalHistory(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, records)
}
