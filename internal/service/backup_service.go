package service

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mautops/office-gin/internal/metrics"
	"github.com/mautops/office-gin/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	backupPrefix   = "backup_"
	backupSuffix   = ".tar.gz"
	manifestName   = "manifest.json"
	backupVersion  = 1
	resourceBackup = "backup"
)

// BackupService 备份服务
// 每个备份是一个 tar.gz,包含 manifest 和每张表一个 JSON 数组
type BackupService struct {
	db        *gorm.DB
	backupDir string
	clock     Clock
	logger    *logrus.Logger
	auditLog  AuditLogService
}

// BackupInfo 备份信息
type BackupInfo struct {
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	DatabaseType string    `json:"database_type"`
}

// BackupManifest 备份清单
type BackupManifest struct {
	Version   int              `json:"version"`
	Driver    string           `json:"driver"`
	CreatedAt time.Time        `json:"created_at"`
	Tables    map[string]int64 `json:"tables"` // 表名 -> 行数
}

// editorTaskRow 编辑表条目的备份行,保留模型中不输出的列
type editorTaskRow struct {
	ID        string    `json:"id"`
	SheetID   string    `json:"sheet_id"`
	Position  int       `json:"position"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (editorTaskRow) TableName() string {
	return model.EditorTaskModel{}.TableName()
}

// snapshotTable 一张表的导出与导入
type snapshotTable struct {
	name string
	dump func(db *gorm.DB) ([]byte, int64, error)
	load func(tx *gorm.DB, data []byte) (int64, error)
}

func tableOf[T any](name string) snapshotTable {
	return snapshotTable{
		name: name,
		dump: func(db *gorm.DB) ([]byte, int64, error) {
			rows := make([]T, 0)
			if err := db.Order("created_at ASC").Find(&rows).Error; err != nil {
				return nil, 0, err
			}
			data, err := json.Marshal(rows)
			return data, int64(len(rows)), err
		},
		load: func(tx *gorm.DB, data []byte) (int64, error) {
			var rows []T
			if err := json.Unmarshal(data, &rows); err != nil {
				return 0, err
			}
			if len(rows) == 0 {
				return 0, nil
			}
			if err := tx.Omit(clause.Associations).CreateInBatches(&rows, 100).Error; err != nil {
				return 0, err
			}
			return int64(len(rows)), nil
		},
	}
}

// snapshotTables 按依赖顺序排列,导入时先父后子,清空时反向
var snapshotTables = []snapshotTable{
	tableOf[model.AttendanceRecordModel]("attendance_records"),
	tableOf[model.DailyTaskModel]("daily_tasks"),
	tableOf[model.ApprovalRecordModel]("approval_records"),
	tableOf[model.EditorSheetModel]("editor_sheets"),
	tableOf[editorTaskRow]("editor_tasks"),
	tableOf[model.AuditLogModel]("audit_logs"),
	tableOf[model.EventModel]("events"),
}

// NewBackupService 创建备份服务
func NewBackupService(db *gorm.DB, backupDir string, opts ...Option) *BackupService {
	o := buildOptions(opts)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		o.logger.WithError(err).WithField("dir", backupDir).Warn("backup directory unavailable, falling back to temp dir")
		backupDir = os.TempDir()
	}

	return &BackupService{
		db:        db,
		backupDir: backupDir,
		clock:     o.clock,
		logger:    o.logger,
		auditLog:  o.auditLog,
	}
}

// BackupDir 获取备份目录
func (s *BackupService) BackupDir() string {
	return s.backupDir
}

// CreateBackup 创建备份,返回备份信息
func (s *BackupService) CreateBackup(ctx context.Context) (*BackupInfo, error) {
	info, err := s.createBackup(ctx)
	metrics.RecordBackup("create", err == nil, s.clock())
	return info, err
}

func (s *BackupService) createBackup(ctx context.Context) (*BackupInfo, error) {
	now := s.clock()
	driver := s.db.Dialector.Name()
	filename := fmt.Sprintf("%s%s_%s%s", backupPrefix, driver, now.Format("20060102_150405"), backupSuffix)
	backupPath := filepath.Join(s.backupDir, filename)

	manifest := &BackupManifest{
		Version:   backupVersion,
		Driver:    driver,
		CreatedAt: now,
		Tables:    make(map[string]int64, len(snapshotTables)),
	}

	// 在只读一致的视图里导出全部表
	payloads := make(map[string][]byte, len(snapshotTables))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range snapshotTables {
			data, count, err := table.dump(tx)
			if err != nil {
				return fmt.Errorf("failed to export table %s: %w", table.name, err)
			}
			payloads[table.name] = data
			manifest.Tables[table.name] = count
		}
		return nil
	})
	if err != nil {
		return nil, NewStorageError("failed to export tables", err)
	}

	if err := writeArchive(backupPath, manifest, payloads); err != nil {
		os.Remove(backupPath)
		return nil, NewStorageError("failed to write backup", err)
	}

	info, err := s.describe(filename)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, ActionCreateBackup, filename, manifest.Tables)
	s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"size":     info.Size,
	}).Info("backup created")
	return info, nil
}

// writeArchive 写入 tar.gz
func writeArchive(backupPath string, manifest *BackupManifest, payloads map[string][]byte) error {
	file, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzWriter)

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := writeEntry(tarWriter, manifestName, manifestJSON, manifest.CreatedAt); err != nil {
		return err
	}
	for _, table := range snapshotTables {
		if err := writeEntry(tarWriter, table.name+".json", payloads[table.name], manifest.CreatedAt); err != nil {
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip: %w", err)
	}
	return file.Sync()
}

func writeEntry(w *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := w.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tar entry %s: %w", name, err)
	}
	return nil
}

// ReadManifest 读取备份清单
func (s *BackupService) ReadManifest(filename string) (*BackupManifest, error) {
	manifest, _, err := s.readArchive(filename)
	return manifest, err
}

// RestoreBackup 用备份内容替换当前数据,在单个事务中完成
func (s *BackupService) RestoreBackup(ctx context.Context, filename string) (*BackupManifest, error) {
	manifest, err := s.restoreBackup(ctx, filename)
	metrics.RecordBackup("restore", err == nil, s.clock())
	return manifest, err
}

func (s *BackupService) restoreBackup(ctx context.Context, filename string) (*BackupManifest, error) {
	manifest, payloads, err := s.readArchive(filename)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(snapshotTables) - 1; i >= 0; i-- {
			if err := tx.Exec("DELETE FROM " + snapshotTables[i].name).Error; err != nil {
				return fmt.Errorf("failed to clear table %s: %w", snapshotTables[i].name, err)
			}
		}
		for _, table := range snapshotTables {
			data, ok := payloads[table.name]
			if !ok {
				continue
			}
			if _, err := table.load(tx, data); err != nil {
				return fmt.Errorf("failed to import table %s: %w", table.name, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("filename", filename).Error("restore failed")
		return nil, NewStorageError("failed to restore backup", err)
	}

	s.audit(ctx, ActionRestoreBackup, filename, manifest.Tables)
	s.logger.WithField("filename", filename).Info("backup restored")
	return manifest, nil
}

// readArchive 读取 manifest 和各表数据
func (s *BackupService) readArchive(filename string) (*BackupManifest, map[string][]byte, error) {
	backupPath, err := s.BackupPath(filename)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(backupPath)
	if err != nil {
		return nil, nil, NewStorageError("failed to open backup file", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, nil, NewValidationError("backup is not a gzip archive")
	}
	defer gzReader.Close()

	var manifest *BackupManifest
	payloads := make(map[string][]byte)
	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, NewValidationError(fmt.Sprintf("corrupt backup archive: %v", err))
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, NewStorageError("failed to read backup entry", err)
		}
		if header.Name == manifestName {
			manifest = &BackupManifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, NewValidationError("invalid backup manifest")
			}
			continue
		}
		payloads[strings.TrimSuffix(header.Name, ".json")] = data
	}

	if manifest == nil {
		return nil, nil, NewValidationError("backup manifest missing")
	}
	if manifest.Version != backupVersion {
		return nil, nil, NewValidationError(fmt.Sprintf("unsupported backup version %d", manifest.Version))
	}
	return manifest, payloads, nil
}

// ListBackups 列出所有备份,最新的在前
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, NewStorageError("failed to read backup directory", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:     entry.Name(),
			Path:         filepath.Join(s.backupDir, entry.Name()),
			Size:         info.Size(),
			CreatedAt:    info.ModTime(),
			DatabaseType: detectDatabaseType(entry.Name()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// BackupPath 返回备份文件的完整路径,文件名必须落在备份目录内
func (s *BackupService) BackupPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || !isBackupFile(filename) {
		return "", NewValidationError(fmt.Sprintf("invalid backup filename: %s", filename))
	}

	absBackupDir, err := filepath.Abs(s.backupDir)
	if err != nil {
		return "", NewStorageError("failed to resolve backup directory", err)
	}
	absBackupPath, err := filepath.Abs(filepath.Join(s.backupDir, filename))
	if err != nil {
		return "", NewStorageError("failed to resolve backup path", err)
	}
	if filepath.Dir(absBackupPath) != absBackupDir {
		return "", NewValidationError(fmt.Sprintf("invalid backup filename: %s", filename))
	}

	if _, err := os.Stat(absBackupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", NewNotFoundError("backup not found")
		}
		return "", NewStorageError("failed to stat backup", err)
	}
	return absBackupPath, nil
}

// DeleteBackup 删除备份
func (s *BackupService) DeleteBackup(ctx context.Context, filename string) error {
	err := s.deleteBackup(ctx, filename)
	metrics.RecordBackup("delete", err == nil, s.clock())
	return err
}

func (s *BackupService) deleteBackup(ctx context.Context, filename string) error {
	backupPath, err := s.BackupPath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(backupPath); err != nil {
		return NewStorageError("failed to delete backup", err)
	}

	s.audit(ctx, ActionDeleteBackup, filename, nil)
	s.logger.WithField("filename", filename).Info("backup deleted")
	return nil
}

func (s *BackupService) describe(filename string) (*BackupInfo, error) {
	backupPath := filepath.Join(s.backupDir, filename)
	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, NewStorageError("failed to stat backup", err)
	}
	return &BackupInfo{
		Filename:     filename,
		Path:         backupPath,
		Size:         stat.Size(),
		CreatedAt:    stat.ModTime(),
		DatabaseType: detectDatabaseType(filename),
	}, nil
}

func (s *BackupService) audit(ctx context.Context, action, filename string, details interface{}) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.RecordAction(ctx, "system", action, resourceBackup, filename, details); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("failed to record audit log")
	}
}

// isBackupFile 检查是否是备份文件
func isBackupFile(filename string) bool {
	return strings.HasPrefix(filename, backupPrefix) && strings.HasSuffix(filename, backupSuffix)
}

// detectDatabaseType 从文件名中识别数据库类型
func detectDatabaseType(filename string) string {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		if strings.HasPrefix(filename, backupPrefix+driver+"_") {
			return driver
		}
	}
	return "unknown"
}
