package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/service"
)

// BackupController 备份控制器
type BackupController struct {
	backupService *service.BackupService
}

// NewBackupController 创建备份控制器
func NewBackupController(backupService *service.BackupService) *BackupController {
	return &BackupController{
		backupService: backupService,
	}
}

// CreateBackup 创建备份
// @Summary      创建数据备份
// @Tags         系统管理
// @Produce      json
// @Success      200  {object}  Response{data=service.BackupInfo}
// @Failure      500  {object}  ErrorResponse
// @Router       /backups [post]
func (c *BackupController) CreateBackup(ctx *gin.Context) {
	info, err := c.backupService.CreateBackup(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, info)
}

// ListBackups 列出所有备份
// @Summary      列出所有备份
// @Tags         系统管理
// @Produce      json
// @Success      200  {object}  Response{data=[]service.BackupInfo}
// @Failure      500  {object}  ErrorResponse
// @Router       /backups [get]
func (c *BackupController) ListBackups(ctx *gin.Context) {
	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, backups)
}

// DownloadBackup 下载备份文件
// @Summary      下载备份
// @Tags         系统管理
// @Produce      application/gzip
// @Param        filename path string true "备份文件名"
// @Success      200  {file}  file
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /backups/{filename} [get]
func (c *BackupController) DownloadBackup(ctx *gin.Context) {
	filename := ctx.Param("filename")
	backupPath, err := c.backupService.BackupPath(filename)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.FileAttachment(backupPath, filename)
}

// RestoreBackup 恢复备份
// @Summary      恢复数据备份
// @Description  用备份内容替换当前全部数据
// @Tags         系统管理
// @Produce      json
// @Param        filename path string true "备份文件名"
// @Success      200  {object}  Response{data=service.BackupManifest}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /backups/{filename}/restore [post]
func (c *BackupController) RestoreBackup(ctx *gin.Context) {
	manifest, err := c.backupService.RestoreBackup(ctx.Request.Context(), ctx.Param("filename"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, manifest)
}

// DeleteBackup 删除备份
// @Summary      删除备份
// @Tags         系统管理
// @Produce      json
// @Param        filename path string true "备份文件名"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /backups/{filename} [delete]
func (c *BackupController) DeleteBackup(ctx *gin.Context) {
	if err := c.backupService.DeleteBackup(ctx.Request.Context(), ctx.Param("filename")); err != nil {
		_ = ctx.Error(err)
		return
	}

	Success(ctx, nil)
}
