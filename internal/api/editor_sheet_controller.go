package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

// EditorSheetController 编辑表控制器
type EditorSheetController struct {
	sheetService service.EditorSheetService
}

// NewEditorSheetController 创建编辑表控制器
func NewEditorSheetController(sheetService service.EditorSheetService) *EditorSheetController {
	return &EditorSheetController{
		sheetService: sheetService,
	}
}

// Create 创建编辑表
// @Summary      创建编辑表
// @Tags         编辑表
// @Accept       json
// @Produce      json
// @Param        request body service.CreateSheetRequest true "编辑表信息"
// @Success      201  {object}  Response{data=model.EditorSheetModel}
// @Failure      400  {object}  ErrorResponse
// @Router       /editor-sheets/create [post]
func (c *EditorSheetController) Create(ctx *gin.Context) {
	var req service.CreateSheetRequest
	if !bindJSON(ctx, &req) {
		return
	}

	sheet, err := c.sheetService.CreateSheet(ctx.Request.Context(), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, sheet)
}

// ListAll 全部编辑表,最近更新的在前
// @Summary      全部编辑表
// @Tags         编辑表
// @Produce      json
// @Success      200  {object}  Response{data=[]model.EditorSheetModel}
// @Router       /editor-sheets/all [get]
func (c *EditorSheetController) ListAll(ctx *gin.Context) {
	sheets, err := c.sheetService.ListAllSheets(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, sheets)
}

// ListByEmployee 员工的编辑表
// @Summary      员工的编辑表
// @Tags         编辑表
// @Produce      json
// @Param        employeeId path string true "员工 ID"
// @Success      200  {object}  Response{data=[]model.EditorSheetModel}
// @Router       /editor-sheets/employee/{employeeId} [get]
func (c *EditorSheetController) ListByEmployee(ctx *gin.Context) {
	employeeID, ok := pathID(ctx, "employeeId")
	if !ok {
		return
	}

	sheets, err := c.sheetService.ListSheetsForEmployee(ctx.Request.Context(), employeeID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, sheets)
}

// Get 编辑表详情
// @Summary      编辑表详情
// @Tags         编辑表
// @Produce      json
// @Param        sheetId path string true "编辑表 ID"
// @Success      200  {object}  Response{data=model.EditorSheetModel}
// @Failure      404  {object}  ErrorResponse
// @Router       /editor-sheets/{sheetId} [get]
func (c *EditorSheetController) Get(ctx *gin.Context) {
	sheetID, ok := pathID(ctx, "sheetId")
	if !ok {
		return
	}

	sheet, err := c.sheetService.GetSheet(ctx.Request.Context(), sheetID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, sheet)
}

// Delete 删除编辑表及其条目
// @Summary      删除编辑表
// @Tags         编辑表
// @Produce      json
// @Param        sheetId path string true "编辑表 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /editor-sheets/{sheetId} [delete]
func (c *EditorSheetController) Delete(ctx *gin.Context) {
	sheetID, ok := pathID(ctx, "sheetId")
	if !ok {
		return
	}

	if err := c.sheetService.DeleteSheet(ctx.Request.Context(), sheetID); err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, nil)
}

// AddTask 追加条目
// @Summary      追加条目
// @Tags         编辑表
// @Accept       json
// @Produce      json
// @Param        sheetId path string true "编辑表 ID"
// @Param        request body service.AddEditorTaskRequest true "条目"
// @Success      201  {object}  Response{data=model.EditorTaskModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /editor-sheets/{sheetId}/add-task [post]
func (c *EditorSheetController) AddTask(ctx *gin.Context) {
	sheetID, ok := pathID(ctx, "sheetId")
	if !ok {
		return
	}
	var req service.AddEditorTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}

	task, err := c.sheetService.AddTask(ctx.Request.Context(), sheetID, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Created(ctx, task)
}

// UpdateTask 部分更新条目
// @Summary      更新条目
// @Tags         编辑表
// @Accept       json
// @Produce      json
// @Param        sheetId path string true "编辑表 ID"
// @Param        request body service.UpdateEditorTaskRequest true "更新内容"
// @Success      200  {object}  Response{data=model.EditorTaskModel}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /editor-sheets/{sheetId}/update-task [put]
func (c *EditorSheetController) UpdateTask(ctx *gin.Context) {
	sheetID, ok := pathID(ctx, "sheetId")
	if !ok {
		return
	}
	var req service.UpdateEditorTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}

	task, err := c.sheetService.UpdateTask(ctx.Request.Context(), sheetID, &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, task)
}

// DeleteTask 删除条目,条目不存在时不报错
// @Summary      删除条目
// @Tags         编辑表
// @Produce      json
// @Param        sheetId path string true "编辑表 ID"
// @Param        taskId query string true "条目 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /editor-sheets/{sheetId}/delete-task [delete]
func (c *EditorSheetController) DeleteTask(ctx *gin.Context) {
	sheetID, ok := pathID(ctx, "sheetId")
	if !ok {
		return
	}
	taskID := ctx.Query("taskId")
	if taskID == "" {
		taskID = ctx.Query("task_id")
	}

	if err := c.sheetService.DeleteTask(ctx.Request.Context(), sheetID, taskID); err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, nil)
}
