package xstale

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxCapacity 缓存最大条目数上限。
const maxCapacity = 1 << 24 // 16,777,216

// Config 定义缓存配置。
type Config struct {
	// Capacity 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。超出容量时淘汰最久未使用的条目。
	Capacity int `json:"capacity" yaml:"capacity" koanf:"capacity"`

	// TTL 条目过期时间，写入时计算为固定的过期时刻。
	// 0 表示永不过期，不允许负值。
	// 设置了 WithExpiresFunc 时忽略此字段。
	TTL time.Duration `json:"ttl" yaml:"ttl" koanf:"ttl"`

	// FreshnessMargin 新鲜度余量。条目在距过期不足此余量时即视为
	// 陈旧，避免取出后、消费前的窗口内失效（典型值 60s，用于签名 URL）。
	// 0 表示不留余量，不允许负值。
	FreshnessMargin time.Duration `json:"freshness_margin" yaml:"freshness_margin" koanf:"freshness_margin"`
}

// entry 缓存条目，携带写入时计算好的过期时刻。
// expiresAt 为零值表示永不过期。
type entry[V any] struct {
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

// Option 定义缓存可选配置函数类型。
type Option[K comparable, V any] func(*cacheOptions[K, V])

type cacheOptions[K comparable, V any] struct {
	expiresFunc func(V) time.Time
	onEvicted   func(key K, value V)
}

// WithExpiresFunc 设置从值自身计算过期时刻的函数。
// 用于过期时间编码在值元数据里的场景（签名 URL 的签发时间 + 有效期）。
// 设置后 Config.TTL 被忽略；fn 返回零值时刻表示该条目永不过期。
func WithExpiresFunc[K comparable, V any](fn func(V) time.Time) Option[K, V] {
	return func(o *cacheOptions[K, V]) {
		o.expiresFunc = fn
	}
}

// WithOnEvicted 设置条目因容量淘汰或被删除时的回调函数。
// 回调在底层 LRU 的锁内同步执行，严禁在回调中调用 Cache 自身的方法。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *cacheOptions[K, V]) {
		o.onEvicted = fn
	}
}

// Cache 是带过期语义的有界 LRU 缓存。
// 必须通过 [New] 创建，零值不可用。所有方法都是并发安全的。
//
// 过期条目不会在读取时被同步删除：Get 把它当作未命中，值留在原位，
// 直到被后续 Put 覆盖或被容量淘汰。GetStale 可以显式读到它。
type Cache[K comparable, V any] struct {
	lru         *lru.Cache[K, entry[V]]
	ttl         time.Duration
	margin      time.Duration
	expiresFunc func(V) time.Time
}

// New 创建缓存。
// 如果 cfg.Capacity <= 0，返回 ErrInvalidCapacity。
// 如果 cfg.Capacity > 16,777,216，返回 ErrCapacityExceedsMax。
// 如果 cfg.TTL < 0，返回 ErrInvalidTTL。
// 如果 cfg.FreshnessMargin < 0，返回 ErrInvalidMargin。
func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.Capacity > maxCapacity {
		return nil, ErrCapacityExceedsMax
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.FreshnessMargin < 0 {
		return nil, ErrInvalidMargin
	}

	o := &cacheOptions[K, V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	var backing *lru.Cache[K, entry[V]]
	var err error
	if o.onEvicted != nil {
		onEvicted := o.onEvicted
		backing, err = lru.NewWithEvict[K, entry[V]](cfg.Capacity, func(key K, e entry[V]) {
			onEvicted(key, e.value)
		})
	} else {
		backing, err = lru.New[K, entry[V]](cfg.Capacity)
	}
	if err != nil {
		return nil, err
	}

	return &Cache[K, V]{
		lru:         backing,
		ttl:         cfg.TTL,
		margin:      cfg.FreshnessMargin,
		expiresFunc: o.expiresFunc,
	}, nil
}

// Get 获取新鲜的缓存值，并把键提升为最近使用。
// 键不存在或条目已陈旧时返回零值和 false；陈旧条目不被删除。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return value, false
	}
	if !c.fresh(e, time.Now()) {
		return value, false
	}
	return e.value, true
}

// GetStale 尽力而为地读取缓存值，无论新鲜与否，不提升 LRU 顺序。
// 返回值、该条目的过期时刻（零值表示永不过期）和是否命中。
// 供调用方在刷新失败时自行决定是否接受陈旧值。
func (c *Cache[K, V]) GetStale(key K) (value V, expiresAt time.Time, ok bool) {
	e, ok := c.lru.Peek(key)
	if !ok {
		return value, time.Time{}, false
	}
	return e.value, e.expiresAt, true
}

// Put 写入缓存值，过期时刻在写入时计算一次：
// 优先使用 WithExpiresFunc，否则按 Config.TTL，都未设置则永不过期。
// 返回是否触发了容量淘汰。
func (c *Cache[K, V]) Put(key K, value V) (evicted bool) {
	now := time.Now()
	var expiresAt time.Time
	switch {
	case c.expiresFunc != nil:
		expiresAt = c.expiresFunc(value)
	case c.ttl > 0:
		expiresAt = now.Add(c.ttl)
	}
	return c.lru.Add(key, entry[V]{value: value, insertedAt: now, expiresAt: expiresAt})
}

// PutUntil 写入缓存值并显式指定过期时刻，绕过构造时的过期策略。
// expiresAt 为零值表示永不过期。返回是否触发了容量淘汰。
func (c *Cache[K, V]) PutUntil(key K, value V, expiresAt time.Time) (evicted bool) {
	return c.lru.Add(key, entry[V]{value: value, insertedAt: time.Now(), expiresAt: expiresAt})
}

// Contains 检查键是否存在且新鲜，不提升 LRU 顺序。
func (c *Cache[K, V]) Contains(key K) bool {
	e, ok := c.lru.Peek(key)
	return ok && c.fresh(e, time.Now())
}

// Delete 删除缓存条目，返回键是否存在。
func (c *Cache[K, V]) Delete(key K) bool {
	return c.lru.Remove(key)
}

// Clear 清空所有缓存条目。
func (c *Cache[K, V]) Clear() {
	c.lru.Purge()
}

// Len 返回当前条目数，包含已陈旧但尚未被覆盖或淘汰的条目。
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Keys 返回所有键，按最旧到最新的使用顺序排列。
func (c *Cache[K, V]) Keys() []K {
	return c.lru.Keys()
}

// fresh 判断条目在 now 时刻是否新鲜。
func (c *Cache[K, V]) fresh(e entry[V], now time.Time) bool {
	if e.expiresAt.IsZero() {
		return true
	}
	return e.expiresAt.Sub(now) > c.margin
}
