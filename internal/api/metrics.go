package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/metrics"
)

// MetricsHandler Prometheus 指标处理器
var MetricsHandler = gin.WrapH(metrics.Handler())
