package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mautops/office-gin/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Tracing 链路追踪,未启用时各方法为空操作
type Tracing struct {
	serviceName string
	provider    *tracesdk.TracerProvider
}

// InitTracing 初始化 OpenTelemetry 追踪
func InitTracing(cfg config.TracingConfig) (*Tracing, error) {
	t := &Tracing{serviceName: cfg.ServiceName}
	if t.serviceName == "" {
		t.serviceName = "office-gin"
	}
	if !cfg.Enabled {
		return t, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(t.serviceName)),
	)
	if err != nil {
		return nil, err
	}

	t.provider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	)
	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Enabled 是否启用
func (t *Tracing) Enabled() bool {
	return t != nil && t.provider != nil
}

// Middleware 追踪中间件
func (t *Tracing) Middleware() gin.HandlerFunc {
	if !t.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(t.serviceName, otelgin.WithTracerProvider(t.provider))
}

// Shutdown 刷新并关闭追踪
func (t *Tracing) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
