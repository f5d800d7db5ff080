package xstale

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// defaultCooldown 刷新失败后的默认冷却窗口。
const defaultCooldown = time.Minute

// defaultFetchTimeout 脱离调用方取消链后的默认刷新超时，
// 防止上游挂起时 singleflight 的等待者全部永久阻塞。
const defaultFetchTimeout = 30 * time.Second

// FetchFunc 从上游取回一个新鲜值。
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Loader 组合 Cache 与 RetryGate，提供"取新鲜值，失败容忍陈旧值"的
// 加载语义。并发的同键刷新由 singleflight 合并为一次上游调用。
//
// 刷新失败永远不会淘汰旧值，只写入冷却标记；调用方通过
// WithServeStale 决定此时是否接受陈旧值。
type Loader[K comparable, V any] struct {
	cache      *Cache[K, V]
	gate       *RetryGate[K]
	sf         singleflight.Group
	cooldown   time.Duration
	fetchTO    time.Duration
	serveStale bool
	logger     *slog.Logger
}

// LoaderOption Loader 可选配置。
type LoaderOption[K comparable, V any] func(*Loader[K, V])

// WithCooldown 设置刷新失败后的冷却窗口，默认 60s。
// d <= 0 时静默忽略。
func WithCooldown[K comparable, V any](d time.Duration) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		if d > 0 {
			l.cooldown = d
		}
	}
}

// WithServeStale 设置刷新被抑制或失败时是否回退陈旧值，默认 false。
func WithServeStale[K comparable, V any](enabled bool) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.serveStale = enabled
	}
}

// WithFetchTimeout 设置单次刷新的独立超时，默认 30s。
// 刷新运行在脱离调用方取消链的 context 上（首个调用者取消不应拖累
// singleflight 的其他等待者），此超时是它唯一的时间上界。
// d <= 0 时静默忽略。
func WithFetchTimeout[K comparable, V any](d time.Duration) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		if d > 0 {
			l.fetchTO = d
		}
	}
}

// WithLoaderLogger 设置日志记录器，用于记录刷新失败与陈旧回退。
func WithLoaderLogger[K comparable, V any](logger *slog.Logger) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.logger = logger
	}
}

// NewLoader 创建加载器。cache 为 nil 时返回 ErrNilCache。
func NewLoader[K comparable, V any](cache *Cache[K, V], opts ...LoaderOption[K, V]) (*Loader[K, V], error) {
	if cache == nil {
		return nil, ErrNilCache
	}

	l := &Loader[K, V]{
		cache:    cache,
		gate:     NewRetryGate[K](),
		cooldown: defaultCooldown,
		fetchTO:  defaultFetchTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Cache 返回底层缓存，供调用方直接读写。
func (l *Loader[K, V]) Cache() *Cache[K, V] {
	return l.cache
}

// Gate 返回底层刷新抑制门。
func (l *Loader[K, V]) Gate() *RetryGate[K] {
	return l.gate
}

// Load 返回 key 对应的值：
//  1. 缓存中有新鲜值 → 直接返回；
//  2. 处于冷却窗口 → 不触发刷新；WithServeStale 开启且有旧值则返回
//     旧值，否则返回 ErrNoFreshValue；
//  3. 其余情况经 singleflight 调用 fetch；成功写入缓存并清除冷却标记，
//     失败写入冷却标记，按 WithServeStale 回退或返回包装了原始错误的
//     ErrNoFreshValue。
//
// fetch 在任何缓存锁之外执行。
func (l *Loader[K, V]) Load(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	var zero V

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	if !l.gate.ShouldAttempt(key, time.Now()) {
		if v, ok := l.staleFallback(key, "refresh suppressed"); ok {
			return v, nil
		}
		until, _ := l.gate.BlockedUntil(key)
		return zero, fmt.Errorf("%w: refresh suppressed until %s", ErrNoFreshValue, until.Format(time.RFC3339))
	}

	v, err, _ := l.sf.Do(fmt.Sprint(key), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTO)
		defer cancel()

		value, fetchErr := fetch(fetchCtx)
		if fetchErr != nil {
			l.gate.MarkFailure(key, time.Now(), l.cooldown)
			return nil, fetchErr
		}
		l.gate.MarkSuccess(key)
		l.cache.Put(key, value)
		return value, nil
	})
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("cache refresh failed",
				slog.Any("key", key),
				slog.Duration("cooldown", l.cooldown),
				slog.Any("err", err),
			)
		}
		if sv, ok := l.staleFallback(key, "refresh failed"); ok {
			return sv, nil
		}
		return zero, fmt.Errorf("%w: %w", ErrNoFreshValue, err)
	}

	value, ok := v.(V)
	if !ok {
		// singleflight 只会返回上面闭包写入的类型，此分支不可达
		return zero, fmt.Errorf("%w: unexpected value type %T", ErrNoFreshValue, v)
	}
	return value, nil
}

// staleFallback 在允许时返回陈旧值。
func (l *Loader[K, V]) staleFallback(key K, reason string) (V, bool) {
	var zero V
	if !l.serveStale {
		return zero, false
	}
	v, expiresAt, ok := l.cache.GetStale(key)
	if !ok {
		return zero, false
	}
	if l.logger != nil {
		l.logger.Debug("serving stale value",
			slog.Any("key", key),
			slog.String("reason", reason),
			slog.Time("expired_at", expiresAt),
		)
	}
	return v, true
}
