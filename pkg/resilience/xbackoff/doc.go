// Package xbackoff 提供抓取场景的调用方退避重试。
//
// 限速门只做记账与拒绝，从不睡眠；退避属于调用方。xbackoff 把这条
// 外层重试循环封装起来：指数退避加抖动，且当失败源于限速拒绝时，
// 以拒绝附带的建议等待时长作为本次延迟的下限——窗口没滚出去之前
// 重试必然再次被拒，提前重试只是白白消耗一次机会。
//
// 设计理念:
//   - 记账与退避解耦: 限速门负责"现在能不能发"，本包负责"被拒后
//     等多久再试"，两者互不知晓对方的内部状态
//   - 限速感知延迟: 限速拒绝携带的 RetryAfter 是下一个名额的准确
//     滚出时刻，比任何启发式退避都可靠，作为延迟下限
//   - 终止性错误不重试: 门已关闭、URL 非法这类错误重试无意义，
//     默认直接终止
//
// 底层使用 [avast/retry-go/v5] 实现重试逻辑。
//
// 基本用法:
//
//	err := xbackoff.Do(ctx, func(ctx context.Context) error {
//		tok, err := gate.Admit(ctx, pageURL)
//		if err != nil {
//			return err // 限速拒绝自动按 RetryAfter 退避
//		}
//		return fetch(ctx, tok)
//	}, xbackoff.WithAttempts(5))
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xbackoff
