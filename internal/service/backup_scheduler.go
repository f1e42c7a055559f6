package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BackupScheduler 备份调度器
type BackupScheduler struct {
	backupService *BackupService
	config        *BackupScheduleConfig
	cron          *cron.Cron
	clock         Clock
	logger        *logrus.Logger
	jobTimeout    time.Duration
}

// BackupScheduleConfig 备份计划配置
type BackupScheduleConfig struct {
	Schedule      string // cron 表达式,如 "0 2 * * *" 表示每天凌晨 2 点
	RetentionDays int    // 备份保留天数,0 表示不清理
}

// NewBackupScheduler 创建备份调度器
func NewBackupScheduler(backupService *BackupService, config *BackupScheduleConfig, opts ...Option) *BackupScheduler {
	if config == nil {
		config = &BackupScheduleConfig{
			Schedule:      "0 2 * * *",
			RetentionDays: 30,
		}
	}
	o := buildOptions(opts)

	return &BackupScheduler{
		backupService: backupService,
		config:        config,
		cron:          cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		clock:         o.clock,
		logger:        o.logger,
		jobTimeout:    5 * time.Minute,
	}
}

// Start 注册定时任务并启动
func (s *BackupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.config.Schedule, err)
	}
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule":       s.config.Schedule,
		"retention_days": s.config.RetentionDays,
	}).Info("backup scheduler started")
	return nil
}

// Stop 停止调度器并等待正在执行的任务
func (s *BackupScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("backup scheduler stopped")
}

// Config 获取备份配置
func (s *BackupScheduler) Config() *BackupScheduleConfig {
	return s.config
}

// run 一次定时执行:备份后清理过期文件
func (s *BackupScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if _, err := s.backupService.CreateBackup(ctx); err != nil {
		s.logger.WithError(err).Error("scheduled backup failed")
		return
	}
	if _, err := s.CleanupOldBackups(ctx); err != nil {
		s.logger.WithError(err).Warn("backup cleanup failed")
	}
}

// CleanupOldBackups 删除超过保留期的备份,返回删除数量
func (s *BackupScheduler) CleanupOldBackups(ctx context.Context) (int, error) {
	if s.config.RetentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.backupService.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.clock().Add(-time.Duration(s.config.RetentionDays) * 24 * time.Hour)
	deleted := 0
	for _, backup := range backups {
		if !backup.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.backupService.DeleteBackup(ctx, backup.Filename); err != nil {
			s.logger.WithError(err).WithField("filename", backup.Filename).Warn("failed to delete old backup")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("old backups removed")
	}
	return deleted, nil
}
