package xstale

import "errors"

var (
	// ErrInvalidCapacity 表示缓存容量配置无效。
	ErrInvalidCapacity = errors.New("xstale: capacity must be greater than 0")

	// ErrCapacityExceedsMax 表示缓存容量超过上限 (16,777,216)。
	ErrCapacityExceedsMax = errors.New("xstale: capacity must not exceed 16777216")

	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = errors.New("xstale: TTL must not be negative")

	// ErrInvalidMargin 表示新鲜度余量配置无效。
	ErrInvalidMargin = errors.New("xstale: freshness margin must not be negative")

	// ErrNilCache 表示传入的缓存实例为 nil。
	ErrNilCache = errors.New("xstale: nil cache")

	// ErrInvalidCooldown 表示冷却窗口配置无效。
	ErrInvalidCooldown = errors.New("xstale: cooldown must be greater than 0")

	// ErrNoFreshValue 表示没有新鲜值可用：刷新失败或处于冷却窗口，
	// 且调用方未接受陈旧值。使用 errors.Is 识别。
	ErrNoFreshValue = errors.New("xstale: no fresh value available")
)
