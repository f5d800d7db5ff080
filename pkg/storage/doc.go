// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xstale: 带过期语义的进程内缓存，支持 TTL 与值内嵌过期时间，
//     提供刷新失败冷却与单飞加载
//
// 设计原则：
//   - 过期是读取时的判定而非删除动作，陈旧值保留给降级路径
//   - 容量受限，LRU 淘汰
package storage
