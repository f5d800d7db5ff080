package xbackoff

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/fetchkit/pkg/resilience/xthrottle"
)

// 默认参数
const (
	defaultAttempts = 4
	defaultDelay    = 500 * time.Millisecond
	defaultMaxDelay = 2 * time.Minute
)

// options 内部配置结构
type options struct {
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
	retryIf  func(error) bool
	onRetry  func(attempt int, err error)
}

// Option 配置选项函数
type Option func(*options)

func defaultOptions() *options {
	return &options{
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxDelay: defaultMaxDelay,
		retryIf:  defaultRetryIf,
	}
}

// defaultRetryIf 默认重试判定。
// 门已关闭与非法 URL 是终止性错误，重试不会改变结果。
func defaultRetryIf(err error) bool {
	if errors.Is(err, xthrottle.ErrClosed) || errors.Is(err, xthrottle.ErrInvalidURL) {
		return false
	}
	return true
}

// WithAttempts 设置最大尝试次数（含首次），n <= 0 时保留默认值。
func WithAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.attempts = uint(n)
		}
	}
}

// WithDelay 设置指数退避的基础延迟，d <= 0 时保留默认值。
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithMaxDelay 设置单次延迟上限，d <= 0 时保留默认值。
// 限速拒绝的 RetryAfter 下限不受此上限约束。
func WithMaxDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxDelay = d
		}
	}
}

// WithRetryIf 替换重试判定。传入 nil 会被静默忽略。
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.retryIf = fn
		}
	}
}

// WithOnRetry 设置重试回调，attempt 从 1 开始。传入 nil 会被静默忽略。
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onRetry = fn
		}
	}
}

// Do 执行带退避重试的操作。
//
// 延迟取"指数退避（带抖动、受 MaxDelay 约束）"与"限速拒绝的
// RetryAfter"两者的较大值。上下文取消会中断等待并返回。
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return retry.New(o.build(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 执行带退避重试的操作（有返回值）。
// 泛型函数，必须作为包级函数使用。
func DoWithResult[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return retry.NewWithData[T](o.build(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

// build 构建 retry-go 的选项
func (o *options) build(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(o.attempts),
		retry.Delay(o.delay),
		retry.MaxDelay(o.maxDelay),
		retry.RetryIf(func(err error) bool {
			if !retry.IsRecoverable(err) {
				return false
			}
			return o.retryIf(err)
		}),
		retry.DelayType(throttleAwareDelay),
		retry.LastErrorOnly(true),
	}
	if o.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// retry-go v5 的 OnRetry 从 0 开始计数，转换为 1-based
			o.onRetry(int(n)+1, err)
		}))
	}
	return opts
}

// throttleAwareDelay 在指数退避之上叠加限速拒绝的等待下限。
func throttleAwareDelay(n uint, err error, config retry.DelayContext) time.Duration {
	d := retry.BackOffDelay(n, err, config)
	if wait, ok := xthrottle.RetryAfter(err); ok && wait > d {
		return wait
	}
	return d
}
