// Package xbotwall 识别目标站点的反爬拦截响应。
//
// 站点启用反爬措施后，403/503 响应可能不是普通错误，而是拦截页
// （明确拒绝）或交互式挑战页（需要浏览器求解）。把这类响应当成
// 普通内容处理是正确性错误：调用方要么把请求转交带外的交互式
// 求解通道，要么明确让本次抓取失败。
//
// 设计理念:
//   - 纯函数分类: Classify 无状态、无副作用，同样的输入永远给出
//     同样的裁决，可以在任意并发度下安全共享
//   - 状态码门控: 只检查 403/503，其余状态码直接判定未命中，
//     避免在正常响应体上做无意义的正则扫描
//   - 拦截优先: 拦截页经常捎带通用的挑战标记，因此先查拦截签名
//     再查挑战签名
//   - 签名即数据: 反爬厂商的页面标记随版本漂移，签名集通过配置
//     维护与热替换，内置默认集只是起点
//
// 基本用法:
//
//	verdict := xbotwall.Classify(resp.StatusCode, body)
//	switch verdict {
//	case xbotwall.VerdictBlocked, xbotwall.VerdictChallenge:
//		// 转交交互式求解或失败，不要当普通内容解析
//	case xbotwall.VerdictNone:
//		// 普通错误或正常内容，按原有逻辑处理
//	}
//
// 自定义签名集:
//
//	cfg, _ := xbotwall.LoadConfig(src, "botwall")
//	classifier, err := xbotwall.NewClassifier(cfg)
package xbotwall
