package xthrottle

import (
	"context"
	"time"
)

// Decision 单次准入检查的结果。
type Decision struct {
	// Admitted 是否允许请求通过。
	Admitted bool

	// Stamp 准入时间戳，即 Release 所需的令牌。
	// 仅在 Admitted=true 时有效。
	Stamp time.Time

	// RetryAfter 建议的最短等待时长。
	// 仅在 Admitted=false 时有意义。
	RetryAfter time.Duration

	// Permits 预算上限。
	Permits int

	// Remaining 决策后窗口内剩余名额。
	Remaining int
}

// Limiter 单主机滑动窗口限速器。
// 所有方法并发安全：窗口的全部变更由公平锁串行化，并发调用者按
// 到达顺序获得决策。必须通过 NewLimiter 创建。
type Limiter struct {
	budget Budget
	mu     fairMu
	win    window
}

// NewLimiter 创建限速器。预算无效时返回 ErrInvalidBudget。
func NewLimiter(budget Budget) (*Limiter, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		budget: budget,
		mu:     newFairMu(),
		win: window{
			permits: budget.Permits,
			period:  budget.Period,
			stamps:  make([]time.Time, 0, budget.Permits),
		},
	}, nil
}

// Admit 立即返回一次准入决策，从不内部睡眠。
// 拒绝时 Decision.RetryAfter 给出建议等待时长，等待与重试由调用方
// 负责。调用前或等锁期间发现 ctx 取消即返回错误，不消耗名额。
func (l *Limiter) Admit(ctx context.Context) (*Decision, error) {
	if err := l.mu.lock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.unlock()

	now := time.Now()
	admitted, wait := l.win.tryAdmit(now)
	if !admitted && wait <= 0 {
		// 决策期间窗口已滚动（时钟前进跨过了最旧时间戳），重试一次
		now = time.Now()
		admitted, wait = l.win.tryAdmit(now)
	}

	d := &Decision{
		Admitted:   admitted,
		Permits:    l.budget.Permits,
		Remaining:  l.budget.Permits - l.win.retained(),
		RetryAfter: wait,
	}
	if admitted {
		d.Stamp = now
		d.RetryAfter = 0
	}
	return d, nil
}

// Release 归还恰好一个名额：移除等于 stamp 的准入时间戳。
// 用于已准入的调用未触网（如命中本地缓存）的场景。
// 返回是否发生了移除；重复归还同一令牌返回 false。
func (l *Limiter) Release(stamp time.Time) bool {
	// 归还是非阻塞簿记，不参与排队公平性，用后台 context 即可
	if err := l.mu.lock(context.Background()); err != nil {
		return false
	}
	defer l.mu.unlock()

	return l.win.release(stamp)
}

// Budget 返回此限速器的预算。
func (l *Limiter) Budget() Budget {
	return l.budget
}
