package xthrottle

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectSum 读取指定计数器的总和，不存在时返回 0。
func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNewMetrics_NilProvider(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics(nil) error: %v", err)
	}
	if m != nil {
		t.Fatal("NewMetrics(nil) should return nil collector")
	}

	// nil 接收者的记录方法必须是安全的空操作
	m.RecordAdmit(context.Background(), "h", false, time.Second)
	m.RecordRelease(context.Background(), "h")
}

func TestMetrics_RecordAdmit(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordAdmit(ctx, "site.example", true, 0)
	m.RecordAdmit(ctx, "site.example", true, 0)
	m.RecordAdmit(ctx, "site.example", false, 2*time.Second)

	if got := collectSum(t, reader, metricNameRequestsTotal); got != 3 {
		t.Errorf("requests total = %d, want 3", got)
	}
	if got := collectSum(t, reader, metricNameDeniedTotal); got != 1 {
		t.Errorf("denied total = %d, want 1", got)
	}
}

func TestMetrics_RecordRelease(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.RecordRelease(context.Background(), "site.example")
	m.RecordRelease(context.Background(), "other.example")

	if got := collectSum(t, reader, metricNameReleasedTotal); got != 2 {
		t.Errorf("released total = %d, want 2", got)
	}
}

func TestMetrics_RecordWithCancelledContext(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 请求上下文取消不应丢失指标
	m.RecordAdmit(ctx, "site.example", false, time.Second)

	if got := collectSum(t, reader, metricNameRequestsTotal); got != 1 {
		t.Errorf("requests total = %d, want 1", got)
	}
}

func TestGate_MetricsWiring(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	g, err := NewGate(singleBudget(1, time.Minute), WithMeterProvider(provider))
	if err != nil {
		t.Fatalf("NewGate failed: %v", err)
	}

	ctx := context.Background()
	tok, err := g.Admit(ctx, "https://site.example/a")
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	g.Admit(ctx, "https://site.example/b") //nolint:errcheck // 预期被拒
	g.Finish(tok, false)

	if got := collectSum(t, reader, metricNameRequestsTotal); got != 2 {
		t.Errorf("requests total = %d, want 2", got)
	}
	if got := collectSum(t, reader, metricNameDeniedTotal); got != 1 {
		t.Errorf("denied total = %d, want 1", got)
	}
	if got := collectSum(t, reader, metricNameReleasedTotal); got != 1 {
		t.Errorf("released total = %d, want 1", got)
	}
}
