package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// Models 返回需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&model.AttendanceRecordModel{},
		&model.DailyTaskModel{},
		&model.EditorSheetModel{},
		&model.EditorTaskModel{},
		&model.ApprovalRecordModel{},
		&model.AuditLogModel{},
		&model.EventModel{},
	}
}

// BuildDSN 根据驱动构建 DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	switch cfg.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
	default:
		if cfg.Path == "" {
			return "office.db"
		}
		return cfg.Path
	}
}

// Open 根据配置选择方言
func Open(cfg config.DatabaseConfig) gorm.Dialector {
	dsn := BuildDSN(cfg)
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(dsn)
	case "mysql":
		return mysql.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// resolvePoolConfig 配置优先,未设置的项使用默认值
func resolvePoolConfig(cfg config.DatabaseConfig) *PoolConfig {
	def := GetPoolConfig()
	if cfg.MaxIdleConns <= 0 && cfg.MaxOpenConns <= 0 {
		return def
	}

	pool := &PoolConfig{
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	if pool.MaxIdleConns == 0 {
		pool.MaxIdleConns = def.MaxIdleConns
	}
	if pool.MaxOpenConns == 0 {
		pool.MaxOpenConns = def.MaxOpenConns
	}
	if pool.ConnMaxLifetime == 0 {
		pool.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if pool.ConnMaxIdleTime == 0 {
		pool.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	return pool
}

// GormConfig 返回 gorm 配置
// 开启 TranslateError 以便把唯一约束冲突识别为 gorm.ErrDuplicatedKey
func GormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(Open(cfg), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	poolConfig := resolvePoolConfig(cfg)
	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建模型标签之外的索引
// 唯一索引 (employee_id, date) 已由模型标签声明
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// MySQL 不支持部分索引
	if dialector != "postgres" && dialector != "sqlite" && dialector != "sqlite3" {
		return nil
	}

	// 待审批任务列表按日期倒序查询
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_tasks_pending ON daily_tasks(date) WHERE approval_status = 'pending'").Error; err != nil {
		return fmt.Errorf("failed to create idx_daily_tasks_pending: %w", err)
	}
	// 仍在签到状态的考勤记录
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_attendance_active ON attendance_records(employee_id) WHERE status = 'checked-in'").Error; err != nil {
		return fmt.Errorf("failed to create idx_attendance_active: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_pending ON events(created_at) WHERE status = 'pending'").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_pending: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
