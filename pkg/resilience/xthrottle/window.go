package xthrottle

import (
	"context"
	"time"
)

// window 是单个主机的准入时间戳序列，最旧在前。
// 非并发安全，由持有它的 Limiter 的公平锁串行化访问。
// 每次决策前惰性清除超出 period 的时间戳，清除后长度不超过 permits。
type window struct {
	permits int
	period  time.Duration
	stamps  []time.Time
}

// purge 清除相对 now 已滚出窗口的时间戳（最旧优先）。
func (w *window) purge(now time.Time) {
	i := 0
	for i < len(w.stamps) && now.Sub(w.stamps[i]) >= w.period {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// tryAdmit 在 now 时刻做一次准入尝试。
// 准入时把 now 记入窗口并作为令牌返回；否则返回距最旧时间戳滚出
// 窗口还需等待的时长。
func (w *window) tryAdmit(now time.Time) (admitted bool, wait time.Duration) {
	w.purge(now)
	if len(w.stamps) < w.permits {
		w.stamps = append(w.stamps, now)
		return true, 0
	}
	return false, w.period - now.Sub(w.stamps[0])
}

// release 移除恰好一个等于 token 的时间戳，返回是否发生了移除。
// 用于已准入的名额实际未产生网络流量的场景。
func (w *window) release(token time.Time) bool {
	for i, s := range w.stamps {
		if s.Equal(token) {
			w.stamps = append(w.stamps[:i], w.stamps[i+1:]...)
			return true
		}
	}
	return false
}

// retained 返回窗口当前保留的时间戳数（不触发清除）。
func (w *window) retained() int {
	return len(w.stamps)
}

// fairMu 是容量为 1 的 channel 互斥量。
// 阻塞的发送者由运行时按 FIFO 唤醒，等待者按到达顺序获得锁，
// 满足"到达顺序准入、无饿死"的排序要求；sync.Mutex 不保证这一点。
type fairMu struct {
	ch chan struct{}
}

func newFairMu() fairMu {
	return fairMu{ch: make(chan struct{}, 1)}
}

// lock 获取锁。进入等待前与等待期间都观察 ctx 取消。
func (m fairMu) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m fairMu) unlock() {
	<-m.ch
}
