/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/api"
	"github.com/mautops/office-gin/internal/config"
	"github.com/mautops/office-gin/internal/container"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Office Gin API server.
The server will listen on the configured host and port and provide
REST interfaces for attendance, daily task approval, editor sheets,
statistics and backups, plus a WebSocket feed at /ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyServerFlags(cmd, cfg)

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		api.SetLogger(logger)
		if config.IsProduction(cfg) {
			gin.SetMode(gin.ReleaseMode)
		}

		// 3. 初始化链路追踪
		tracing, err := api.InitTracing(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}

		// 4. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 5. 设置路由
		router := api.SetupRoutes(&api.RouterDeps{
			Config:        cfg,
			DB:            ctr.DB(),
			Logger:        logger,
			Hub:           ctr.Hub(),
			Tracing:       tracing,
			Attendance:    ctr.Attendance(),
			DailyTasks:    ctr.DailyTasks(),
			EditorSheets:  ctr.EditorSheets(),
			Statistics:    ctr.Statistics(),
			Reports:       ctr.Reports(),
			BackupService: ctr.BackupService(),
			AuditLog:      ctr.AuditLog(),
		})
		router.NoRoute(func(c *gin.Context) {
			api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
		})

		// 6. 配置热更新,仅日志级别即时生效
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath, logger)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				level := api.ParseLevel(newCfg.Log.Level)
				if level != logger.GetLevel() {
					logger.SetLevel(level)
					logger.WithField("level", level.String()).Info("log level updated")
				}
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config watcher disabled")
			} else {
				defer watcher.Stop()
			}
		}

		// 7. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.WithFields(logrus.Fields{
				"addr": addr,
				"env":  cfg.Env,
			}).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		// 等待中断信号或启动失败
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err, ok := <-serveErr:
			if ok {
				return fmt.Errorf("failed to start server: %w", err)
			}
		case sig := <-quit:
			logger.WithField("signal", sig.String()).Info("shutting down server")
		}

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("server forced to shutdown")
		}
		if err := tracing.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("failed to flush traces")
		}

		logger.Info("server exited")
		return nil
	},
}

// applyServerFlags 命令行参数覆盖配置
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
