package xthrottle

import (
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/metric"
)

// options 内部配置结构
type options struct {
	shouldLimit   func(*url.URL) bool
	logger        *slog.Logger
	meterProvider metric.MeterProvider
}

// Option 配置选项函数
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithShouldLimit 设置按请求的旁路判定。
// 返回 false 的 URL 完全绕过限速门：不排队、不记账、不产生令牌。
// 典型用法是放过不受目标站点限速约束的第一方 CDN 资源。
// 未设置时所有请求都经过限速。
func WithShouldLimit(fn func(*url.URL) bool) Option {
	return func(o *options) {
		o.shouldLimit = fn
	}
}

// WithLogger 设置日志记录器。
// Debug 记录放行与归还，Warn 记录拒绝。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider 以启用指标收集。
// 未设置时不收集指标。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
