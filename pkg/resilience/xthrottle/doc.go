// Package xthrottle 提供面向站点提取器的主机级请求限速。
//
// # 设计理念
//
// 数百个站点提取器共用一个出站 HTTP 通道，xthrottle 在提取器与传输层
// 之间充当"礼貌层"：每个主机一个滑动窗口，在 (permits, period) 预算内
// 决定放行或拒绝。拒绝是快速失败——返回带建议等待时长的结构化错误，
// 绝不在内部睡眠或重试，退避策略完全交给调用方（参见 xbackoff）。
// 这把"速率记账"与"退避策略"解耦，不同提取器可以在同一个准入原语
// 之上套用各自的重试策略。
//
// # 核心概念
//
//   - Budget：每主机预算 (permits, period)，滚动窗口而非固定桶，
//     避免固定窗口计数器的边界突发问题
//   - Limiter：单主机滑动窗口 + 公平锁；Admit 立即返回决策
//   - Gate：按主机复用 Limiter，包装为请求管线的通过/拒绝门
//   - Token：准入凭证；响应未触网时通过 Finish 归还窗口名额
//
// # 公平性
//
// 同一主机的准入决策由容量为 1 的 channel 互斥量串行化。Go 运行时
// 对阻塞的发送者按 FIFO 唤醒，因此并发调用者按到达顺序获得决策，
// 持续竞争下没有调用者饿死。等待锁期间发现取消立即中止，已取消的
// 调用者绝不消耗名额。
//
// # 快速开始
//
//	gate, err := xthrottle.NewGate(xthrottle.Config{
//	    Default: xthrottle.Budget{Permits: 4, Period: 10 * time.Second},
//	    Hosts: map[string]xthrottle.Budget{
//	        "api.example.org": {Permits: 1, Period: 2 * time.Second},
//	    },
//	}, xthrottle.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := gate.Admit(ctx, rawURL)
//	var throttled *xthrottle.ThrottledError
//	if errors.As(err, &throttled) {
//	    // 至少等待 throttled.RetryAfter 后再重试同一主机
//	    return err
//	}
//	resp, served := doRequest(rawURL)
//	gate.Finish(tok, served.ReachedNetwork)
//
// # 旁路
//
// WithShouldLimit 提供按请求的旁路判定：返回 false 的 URL（如不受
// 目标站点限速约束的第一方 CDN 资源）完全绕过门，既不排队也不记账。
//
// # 可观测性
//
// 集成 log/slog（Debug 放行、Warn 拒绝）与 OpenTelemetry Metrics：
//   - xthrottle.requests.total：准入检查总数 (Counter)
//   - xthrottle.denied.total：被拒绝数 (Counter)
//   - xthrottle.released.total：未触网归还的名额数 (Counter)
//   - xthrottle.wait.duration：拒绝时建议等待时长 (Histogram)
package xthrottle
