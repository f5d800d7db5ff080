// Package xconfload 提供最小化的配置加载能力，基于 koanf 实现。
//
// # 设计理念
//
// fetchkit 的限流预算（xthrottle）和反爬特征集（xbotwall）本质上都是
// 需要持续维护的配置数据，而非固定的算法契约。xconfload 负责把这类
// 数据从文件或字节流加载为 koanf 实例，并在文件变更时自动重载。
// 不负责配置治理（必选字段校验、默认值注入），这些由各消费包的
// Validate 方法完成。
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Reload 通过 sync.Mutex 序列化，解析成功后用 atomic.Pointer 原子替换
// koanf 实例；Koanf/Unmarshal 无锁读取当前实例。Koanf 返回的指针在
// Reload 后仍然有效，但指向旧快照，不建议长期缓存。
//
// # 配置监视
//
// Watch 基于 fsnotify 监视配置文件所在目录，内置防抖，兼容编辑器的
// 原子写入（写临时文件后 rename）。从字节流创建的 Source 不支持监视。
//
//	src, _ := xconfload.Load("/etc/fetchkit/throttle.yaml")
//	w, _ := xconfload.Watch(src, func(s *xconfload.Source, err error) {
//	    if err != nil {
//	        slog.Warn("config reload failed", "err", err)
//	        return
//	    }
//	    gate.ApplyConfig(loadBudgets(s))
//	})
//	w.StartAsync()
//	defer w.Stop()
package xconfload
