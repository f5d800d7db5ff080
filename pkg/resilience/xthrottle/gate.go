package xthrottle

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// shardCount 主机分片数，必须是 2 的幂。
// 主机基数小（受配置的站点数约束），16 片足以消除首次创建时的竞争。
const shardCount = 16

// Token 准入凭证。
// 零值表示"未经过限速"（旁路请求），对其调用 Finish 是空操作。
type Token struct {
	host    string
	stamp   time.Time
	limited bool
}

// Limited 返回此令牌是否消耗了窗口名额。
func (t Token) Limited() bool {
	return t.limited
}

// Host 返回归一化后的主机键，旁路令牌返回空串。
func (t Token) Host() string {
	return t.host
}

// Gate 把按主机的准入决策整合进出站请求管线。
// 每个不同的主机串恰好对应一个 Limiter，首次请求时惰性创建
// （分片锁内 insert-if-absent，并发首访也只创建一个实例）。
// 主机态为进程生命周期，不做显式回收：主机基数小且有界。
type Gate struct {
	cfg         atomic.Pointer[Config]
	shouldLimit func(*url.URL) bool
	logger      *slog.Logger
	metrics     *Metrics
	shards      [shardCount]gateShard
	closed      atomic.Bool
}

type gateShard struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewGate 创建主机限速门。配置无效时返回错误。
func NewGate(cfg Config, opts ...Option) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	var metrics *Metrics
	if o.meterProvider != nil {
		m, err := NewMetrics(o.meterProvider)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	g := &Gate{
		shouldLimit: o.shouldLimit,
		logger:      o.logger,
		metrics:     metrics,
	}
	g.cfg.Store(&cfg)
	for i := range g.shards {
		g.shards[i].limiters = make(map[string]*Limiter)
	}
	return g, nil
}

// Admit 对 rawURL 做一次准入检查。
//
// 返回值：
//   - (Token, nil)：放行。响应产生后必须调用 Finish。
//   - (Token{}, *ThrottledError)：拒绝，errors.Is(err, ErrThrottled)
//     为 true，错误携带建议等待时长。本层不重试，由调用方的退避
//     策略处理。
//   - 其他错误：ctx 已取消（不消耗名额）、Gate 已关闭或 URL 非法。
//
// WithShouldLimit 判定为 false 的请求直接放行且不记账。
func (g *Gate) Admit(ctx context.Context, rawURL string) (Token, error) {
	if g.closed.Load() {
		return Token{}, ErrClosed
	}
	// 已取消的调用者绝不消耗名额
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if g.shouldLimit != nil && !g.shouldLimit(u) {
		return Token{}, nil
	}

	host := NormalizeHost(u.Host)
	lim := g.limiterFor(host)

	d, err := lim.Admit(ctx)
	if err != nil {
		return Token{}, err
	}

	if !d.Admitted {
		g.metrics.RecordAdmit(ctx, host, false, d.RetryAfter)
		if g.logger != nil {
			g.logger.Warn("request throttled",
				slog.String("host", host),
				slog.String("url", rawURL),
				slog.Duration("retry_after", d.RetryAfter),
			)
		}
		return Token{}, &ThrottledError{URL: rawURL, Host: host, RetryAfter: d.RetryAfter}
	}

	g.metrics.RecordAdmit(ctx, host, true, 0)
	if g.logger != nil {
		g.logger.Debug("request admitted",
			slog.String("host", host),
			slog.Int("remaining", d.Remaining),
		)
	}
	return Token{host: host, stamp: d.Stamp, limited: true}, nil
}

// Finish 结束一次已准入的请求。
// reachedNetwork 为 false（响应由本地缓存合成，未产生真实流量）时
// 把名额归还窗口；为 true 时名额在整个 period 内保持占用。
// 返回是否发生了归还。旁路令牌与零值令牌为空操作。
func (g *Gate) Finish(token Token, reachedNetwork bool) bool {
	if !token.limited || reachedNetwork {
		return false
	}

	shard := g.shardFor(token.host)
	shard.mu.Lock()
	lim := shard.limiters[token.host]
	shard.mu.Unlock()
	if lim == nil {
		return false
	}

	released := lim.Release(token.stamp)
	if released {
		g.metrics.RecordRelease(context.Background(), token.host)
		if g.logger != nil {
			g.logger.Debug("slot released", slog.String("host", token.host))
		}
	}
	return released
}

// ApplyConfig 替换预算配置，用于配合 xconfload.Watch 热更新。
// 新配置只影响此后创建的限速器；已有主机保留其窗口与在途记账，
// 需要立即生效时配合 Reset 丢弃对应主机的限速器。
func (g *Gate) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg.Store(&cfg)
	return nil
}

// Reset 丢弃指定主机的限速器（含其在途记账），下次请求按当前配置
// 重建。返回该主机此前是否存在限速器。
func (g *Gate) Reset(host string) bool {
	host = NormalizeHost(host)
	shard := g.shardFor(host)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.limiters[host]; !ok {
		return false
	}
	delete(shard.limiters, host)
	return true
}

// Hosts 返回当前持有限速器的主机键。
func (g *Gate) Hosts() []string {
	var hosts []string
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for h := range s.limiters {
			hosts = append(hosts, h)
		}
		s.mu.Unlock()
	}
	return hosts
}

// Close 关闭 Gate，此后 Admit 返回 ErrClosed。幂等。
func (g *Gate) Close() error {
	g.closed.Store(true)
	return nil
}

// limiterFor 获取或创建主机对应的限速器。
func (g *Gate) limiterFor(host string) *Limiter {
	shard := g.shardFor(host)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if lim, ok := shard.limiters[host]; ok {
		return lim
	}

	budget := g.cfg.Load().budgetFor(host)
	// 配置在 NewGate/ApplyConfig 时已验证，此处不会失败
	lim, err := NewLimiter(budget)
	if err != nil {
		lim, _ = NewLimiter(Budget{Permits: 1, Period: budget.Period})
	}
	shard.limiters[host] = lim
	return lim
}

func (g *Gate) shardFor(host string) *gateShard {
	h := xxhash.Sum64String(host)
	return &g.shards[h&(shardCount-1)]
}

// NormalizeHost 把主机串归一化为限速键：小写、去空白、去端口、
// 去 IPv6 方括号。URL 的 scheme 不参与键，因此同一主机的 http 与
// https 请求共享一个窗口。
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[]")
}
