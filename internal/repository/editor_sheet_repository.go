package repository

import (
	"context"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"gorm.io/gorm"
)

// EditorSheetRepository 编辑表仓储接口
type EditorSheetRepository interface {
	Create(ctx context.Context, sheet *model.EditorSheetModel) error
	FindByID(ctx context.Context, id string) (*model.EditorSheetModel, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]*model.EditorSheetModel, error)
	FindAll(ctx context.Context) ([]*model.EditorSheetModel, error)
	Delete(ctx context.Context, id string) error
	AppendTask(ctx context.Context, sheetID string, task *model.EditorTaskModel) error
	FindTask(ctx context.Context, sheetID, taskID string) (*model.EditorTaskModel, error)
	SaveTask(ctx context.Context, task *model.EditorTaskModel) error
	DeleteTask(ctx context.Context, sheetID, taskID string, at time.Time) (int64, error)
}

// editorSheetRepository 编辑表仓储实现
type editorSheetRepository struct {
	db *gorm.DB
}

// NewEditorSheetRepository 创建编辑表仓储
func NewEditorSheetRepository(db *gorm.DB) EditorSheetRepository {
	return &editorSheetRepository{db: db}
}

// preloadTasks 按插入顺序预加载任务
func preloadTasks(db *gorm.DB) *gorm.DB {
	return db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create 新建编辑表
func (r *editorSheetRepository) Create(ctx context.Context, sheet *model.EditorSheetModel) error {
	return r.db.WithContext(ctx).Omit("Tasks").Create(sheet).Error
}

// FindByID 根据 ID 查找编辑表(含任务)
func (r *editorSheetRepository) FindByID(ctx context.Context, id string) (*model.EditorSheetModel, error) {
	var sheet model.EditorSheetModel
	if err := preloadTasks(r.db.WithContext(ctx)).Where("id = ?", id).First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

// FindByEmployee 查找员工的编辑表,按创建时间正序
func (r *editorSheetRepository) FindByEmployee(ctx context.Context, employeeID string) ([]*model.EditorSheetModel, error) {
	var sheets []*model.EditorSheetModel
	err := preloadTasks(r.db.WithContext(ctx)).
		Where("employee_id = ?", employeeID).
		Order("created_at ASC").
		Find(&sheets).Error
	return sheets, err
}

// FindAll 查找所有编辑表,按更新时间倒序
func (r *editorSheetRepository) FindAll(ctx context.Context) ([]*model.EditorSheetModel, error) {
	var sheets []*model.EditorSheetModel
	err := preloadTasks(r.db.WithContext(ctx)).Order("updated_at DESC").Find(&sheets).Error
	return sheets, err
}

// Delete 删除编辑表及其全部任务
func (r *editorSheetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sheet_id = ?", id).Delete(&model.EditorTaskModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.EditorSheetModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AppendTask 在编辑表末尾追加任务
func (r *editorSheetRepository) AppendTask(ctx context.Context, sheetID string, task *model.EditorTaskModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPosition *int
		if err := tx.Model(&model.EditorTaskModel{}).
			Where("sheet_id = ?", sheetID).
			Select("MAX(position)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}

		task.SheetID = sheetID
		task.Position = 0
		if maxPosition != nil {
			task.Position = *maxPosition + 1
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return touchSheet(tx, sheetID, task.UpdatedAt)
	})
}

// FindTask 查找编辑表中的任务
func (r *editorSheetRepository) FindTask(ctx context.Context, sheetID, taskID string) (*model.EditorTaskModel, error) {
	var task model.EditorTaskModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND sheet_id = ?", taskID, sheetID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// SaveTask 保存任务
func (r *editorSheetRepository) SaveTask(ctx context.Context, task *model.EditorTaskModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		return touchSheet(tx, task.SheetID, task.UpdatedAt)
	})
}

// DeleteTask 删除编辑表中的任务,返回删除的行数,有删除时把编辑表更新时间设为 at
func (r *editorSheetRepository) DeleteTask(ctx context.Context, sheetID, taskID string, at time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND sheet_id = ?", taskID, sheetID).Delete(&model.EditorTaskModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		if deleted == 0 {
			return nil
		}
		return touchSheet(tx, sheetID, at)
	})
	return deleted, err
}

// touchSheet 刷新编辑表的更新时间
func touchSheet(tx *gorm.DB, sheetID string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	return tx.Model(&model.EditorSheetModel{}).
		Where("id = ?", sheetID).
		UpdateColumn("updated_at", at).Error
}
