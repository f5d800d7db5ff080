package xstale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"zero capacity", Config{Capacity: 0}, ErrInvalidCapacity},
		{"negative capacity", Config{Capacity: -1}, ErrInvalidCapacity},
		{"capacity over max", Config{Capacity: maxCapacity + 1}, ErrCapacityExceedsMax},
		{"negative ttl", Config{Capacity: 1, TTL: -time.Second}, ErrInvalidTTL},
		{"negative margin", Config{Capacity: 1, FreshnessMargin: -time.Second}, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[string, int](tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCache_PutGet(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8})
	require.NoError(t, err)

	cache.Put("a", 1)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCache_PutGet_TTLMode(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8, TTL: time.Minute})
	require.NoError(t, err)

	cache.Put("a", 42)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCache_LRUEviction(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 2})
	require.NoError(t, err)

	cache.Put("a", 1)
	cache.Put("b", 2)

	// 读取 a 使其成为最近使用，下一次写入应淘汰 b
	_, _ = cache.Get("a")
	evicted := cache.Put("c", 3)
	assert.True(t, evicted)

	_, ok := cache.Get("a")
	assert.True(t, ok, "recently used entry must survive")
	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCache_OnEvicted(t *testing.T) {
	var evictedKeys []string
	cache, err := New[string, int](Config{Capacity: 1},
		WithOnEvicted[string, int](func(key string, _ int) {
			evictedKeys = append(evictedKeys, key)
		}))
	require.NoError(t, err)

	cache.Put("a", 1)
	cache.Put("b", 2)
	assert.Equal(t, []string{"a"}, evictedKeys)
}

func TestCache_TTLExpiry_StaleIsMissButRetained(t *testing.T) {
	cache, err := New[string, string](Config{Capacity: 8, TTL: time.Millisecond})
	require.NoError(t, err)

	cache.Put("cover", "https://cdn.example/img.jpg")
	time.Sleep(3 * time.Millisecond)

	// 过期后 Get 视为未命中
	_, ok := cache.Get("cover")
	assert.False(t, ok)

	// 但条目仍在原位，GetStale 可以显式读到
	assert.Equal(t, 1, cache.Len())
	v, expiresAt, ok := cache.GetStale("cover")
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example/img.jpg", v)
	assert.False(t, expiresAt.IsZero())
}

func TestCache_FreshnessMargin(t *testing.T) {
	// 条目 80ms 后过期，但余量 50ms：30ms 后距过期仅剩约 50ms，
	// 不满足"剩余严格大于余量"，应视为陈旧。
	cache, err := New[string, int](Config{
		Capacity:        8,
		TTL:             80 * time.Millisecond,
		FreshnessMargin: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	cache.Put("k", 7)

	v, ok := cache.Get("k")
	require.True(t, ok, "entry should be fresh immediately after insert")
	assert.Equal(t, 7, v)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok, "entry inside the margin window must read as a miss")

	// 陈旧读取路径不受余量影响
	_, _, ok = cache.GetStale("k")
	assert.True(t, ok)
}

func TestCache_ExpiresFunc(t *testing.T) {
	type signedURL struct {
		raw      string
		issuedAt time.Time
		validity time.Duration
	}

	cache, err := New[string, signedURL](Config{Capacity: 8},
		WithExpiresFunc[string](func(u signedURL) time.Time {
			return u.issuedAt.Add(u.validity)
		}))
	require.NoError(t, err)

	now := time.Now()
	cache.Put("live", signedURL{raw: "u1", issuedAt: now, validity: time.Hour})
	cache.Put("dead", signedURL{raw: "u2", issuedAt: now.Add(-2 * time.Hour), validity: time.Hour})

	v, ok := cache.Get("live")
	assert.True(t, ok)
	assert.Equal(t, "u1", v.raw)

	_, ok = cache.Get("dead")
	assert.False(t, ok, "already-expired signed URL must read as a miss")

	stale, _, ok := cache.GetStale("dead")
	assert.True(t, ok)
	assert.Equal(t, "u2", stale.raw)
}

func TestCache_PutUntil(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8, TTL: time.Nanosecond})
	require.NoError(t, err)

	// 显式过期时刻绕过构造时的 TTL 策略
	cache.PutUntil("k", 1, time.Now().Add(time.Hour))
	_, ok := cache.Get("k")
	assert.True(t, ok)

	// 零值时刻表示永不过期
	cache.PutUntil("forever", 2, time.Time{})
	_, ok = cache.Get("forever")
	assert.True(t, ok)
}

func TestCache_NeverExpires(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8})
	require.NoError(t, err)

	cache.Put("k", 1)
	time.Sleep(2 * time.Millisecond)
	_, ok := cache.Get("k")
	assert.True(t, ok)
	assert.True(t, cache.Contains("k"))
}

func TestCache_DeleteClearKeys(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8})
	require.NoError(t, err)

	cache.Put("a", 1)
	cache.Put("b", 2)

	assert.True(t, cache.Delete("a"))
	assert.False(t, cache.Delete("a"))
	assert.Equal(t, []string{"b"}, cache.Keys())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Contains_StaleAware(t *testing.T) {
	cache, err := New[string, int](Config{Capacity: 8, TTL: time.Millisecond})
	require.NoError(t, err)

	cache.Put("k", 1)
	time.Sleep(3 * time.Millisecond)
	assert.False(t, cache.Contains("k"), "Contains must respect freshness")
}
