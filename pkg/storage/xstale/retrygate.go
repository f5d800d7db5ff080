package xstale

import (
	"sync"
	"time"
)

// RetryGate 在刷新失败后的冷却窗口内抑制对同一键的再次刷新。
// 典型场景：为补一张封面图反复重拉详情页，而目标主机正在故障。
// 所有方法都是并发安全的。零值不可用，必须通过 NewRetryGate 创建。
type RetryGate[K comparable] struct {
	mu    sync.Mutex
	marks map[K]time.Time // key → blockedUntil
}

// NewRetryGate 创建刷新抑制门。
func NewRetryGate[K comparable]() *RetryGate[K] {
	return &RetryGate[K]{
		marks: make(map[K]time.Time),
	}
}

// ShouldAttempt 返回在 now 时刻是否允许对 key 发起刷新。
// 冷却窗口已过的标记被顺带清除。
func (g *RetryGate[K]) ShouldAttempt(key K, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.marks[key]
	if !ok {
		return true
	}
	if now.Before(until) {
		return false
	}
	delete(g.marks, key)
	return true
}

// BlockedUntil 返回 key 的抑制截止时刻。
// 第二个返回值为 false 表示该键当前没有抑制标记。
func (g *RetryGate[K]) BlockedUntil(key K) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.marks[key]
	return until, ok
}

// MarkFailure 记录一次刷新失败，此后 cooldown 内对 key 的刷新被抑制。
// cooldown <= 0 时不写入标记。
func (g *RetryGate[K]) MarkFailure(key K, now time.Time, cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.marks[key] = now.Add(cooldown)
}

// MarkSuccess 清除 key 的抑制标记。刷新成功后调用。
func (g *RetryGate[K]) MarkSuccess(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.marks, key)
}

// Len 返回当前持有抑制标记的键数量（含已过期未清除的标记）。
func (g *RetryGate[K]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.marks)
}
