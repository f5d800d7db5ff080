// Package xstale 提供站点提取器共用的两类时效缓存形态，以及配套的
// 刷新抑制门与加载器。
//
// # 设计理念
//
// 提取器反复出现同一套缓存需求：按容量淘汰的 LRU 缓存（昂贵的派生值），
// 以及"新鲜度由值自身决定"的 TTL 缓存（如带签名的媒体 URL，其有效期
// 编码在值的元数据里）。历史上这套模式在每个提取器里各写一遍，锁规则
// 微妙不一致。xstale 把它统一为一个泛型抽象，实现一次，处处复用。
//
// 三个组成部分：
//   - Cache：泛型有界缓存，底层为 hashicorp/golang-lru。条目携带
//     过期时间（固定 TTL、或由值计算、或永不过期）。过期条目在 Get
//     上视为未命中但不被删除，GetStale 提供尽力而为的陈旧读取。
//   - RetryGate：刷新失败后在冷却窗口内抑制对同一键的再次刷新，
//     防止对故障主机的热循环重试。
//   - Loader：组合二者，singleflight 去重并发刷新，失败时保留旧值
//     并可选回退陈旧值。
//
// # 失败语义
//
// 一次失败的刷新永远不会淘汰此前缓存的值；它只通过 RetryGate 阻止
// 重试风暴。是否接受陈旧值由调用方决定（WithServeStale）。缓存本身
// 不对调用方抛出硬错误，最多表现为"没有新鲜值"。
//
// # 新鲜度
//
// 条目在 expiresAt 为零值（永不过期）或 expiresAt-now 大于
// FreshnessMargin 时视为新鲜。余量用于避免值在取出后、被消费前的
// 窗口内过期（如签名 URL 刚返回就失效）。
//
// # 快速开始
//
//	cache, _ := xstale.New[string, string](xstale.Config{
//	    Capacity: 512,
//	    TTL:      10 * time.Minute,
//	})
//	cache.Put("slug/cover", coverURL)
//	if u, ok := cache.Get("slug/cover"); ok {
//	    // 使用新鲜值
//	    _ = u
//	}
//
// 签名 URL 场景（过期时间来自值自身）：
//
//	cache, _ := xstale.New[string, SignedURL](
//	    xstale.Config{Capacity: 1024, FreshnessMargin: time.Minute},
//	    xstale.WithExpiresFunc[string](func(u SignedURL) time.Time {
//	        return u.IssuedAt.Add(u.Validity)
//	    }),
//	)
package xstale
