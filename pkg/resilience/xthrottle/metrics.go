package xthrottle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameRequestsTotal 准入检查总数
	metricNameRequestsTotal = "xthrottle.requests.total"
	// metricNameDeniedTotal 被拒绝的检查数
	metricNameDeniedTotal = "xthrottle.denied.total"
	// metricNameReleasedTotal 未触网归还的名额数
	metricNameReleasedTotal = "xthrottle.released.total"
	// metricNameWaitDuration 拒绝时建议等待时长直方图
	metricNameWaitDuration = "xthrottle.wait.duration"
)

// Metrics 限速指标收集器
type Metrics struct {
	meter         metric.Meter
	requestsTotal metric.Int64Counter
	deniedTotal   metric.Int64Counter
	releasedTotal metric.Int64Counter
	waitDuration  metric.Float64Histogram
}

// NewMetrics 创建指标收集器
// 如果 meterProvider 为 nil，返回 nil（不收集指标）
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xthrottle",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	requestsTotal, err := meter.Int64Counter(
		metricNameRequestsTotal,
		metric.WithDescription("准入检查总数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	deniedTotal, err := meter.Int64Counter(
		metricNameDeniedTotal,
		metric.WithDescription("被限速拒绝的检查数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	releasedTotal, err := meter.Int64Counter(
		metricNameReleasedTotal,
		metric.WithDescription("因未触网而归还的名额数"),
		metric.WithUnit("{slot}"),
	)
	if err != nil {
		return nil, err
	}

	waitDuration, err := meter.Float64Histogram(
		metricNameWaitDuration,
		metric.WithDescription("拒绝时的建议等待时长"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		meter:         meter,
		requestsTotal: requestsTotal,
		deniedTotal:   deniedTotal,
		releasedTotal: releasedTotal,
		waitDuration:  waitDuration,
	}, nil
}

// RecordAdmit 记录一次准入检查结果。
// 拒绝时附带建议等待时长。接收者为 nil 时空操作。
func (m *Metrics) RecordAdmit(ctx context.Context, host string, allowed bool, retryAfter time.Duration) {
	if m == nil {
		return
	}

	// 使用 context.WithoutCancel 确保即使 ctx 被取消，指标仍能记录
	metricsCtx := context.WithoutCancel(ctx)

	attrs := []attribute.KeyValue{
		attribute.String("host", host),
		attribute.Bool("allowed", allowed),
	}

	m.requestsTotal.Add(metricsCtx, 1, metric.WithAttributes(attrs...))
	if !allowed {
		m.deniedTotal.Add(metricsCtx, 1, metric.WithAttributes(attrs...))
		m.waitDuration.Record(metricsCtx, retryAfter.Seconds(), metric.WithAttributes(
			attribute.String("host", host),
		))
	}
}

// RecordRelease 记录一次名额归还。接收者为 nil 时空操作。
func (m *Metrics) RecordRelease(ctx context.Context, host string) {
	if m == nil {
		return
	}
	m.releasedTotal.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("host", host),
	))
}
