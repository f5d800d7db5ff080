package xthrottle

import (
	"errors"
	"fmt"
	"time"
)

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrThrottled 表示请求超出主机预算被拒绝。
	ErrThrottled = errors.New("xthrottle: too many requests")

	// ErrClosed 表示 Gate 已关闭。
	ErrClosed = errors.New("xthrottle: gate closed")

	// ErrInvalidBudget 表示预算配置无效。
	ErrInvalidBudget = errors.New("xthrottle: invalid budget")

	// ErrInvalidURL 表示无法从 URL 中提取主机。
	ErrInvalidURL = errors.New("xthrottle: invalid url")
)

// ThrottledError 限速拒绝错误。
//
// 调用方必须在至少 RetryAfter 之后再重试同一主机，或在没有重试预算时
// 让上层操作失败。本层绝不在内部重试。
// 实现了 error 接口和 errors.Is(err, ErrThrottled) 支持。
type ThrottledError struct {
	// URL 被拒绝的请求 URL。
	URL string
	// Host 归一化后的主机键。
	Host string
	// RetryAfter 建议的最短等待时长。
	RetryAfter time.Duration
}

// Error 实现 error 接口
func (e *ThrottledError) Error() string {
	return fmt.Sprintf("xthrottle: too many requests for host %q, retry after %s (url=%s)",
		e.Host, e.RetryAfter, e.URL)
}

// Is 支持 errors.Is 检查
func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// Unwrap 返回底层错误
func (e *ThrottledError) Unwrap() error {
	return ErrThrottled
}

// IsThrottled 检查错误是否为限速拒绝。
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// RetryAfter 提取限速拒绝错误中的建议等待时长。
// 非限速错误返回 (0, false)。
func RetryAfter(err error) (time.Duration, bool) {
	var te *ThrottledError
	if errors.As(err, &te) {
		return te.RetryAfter, true
	}
	return 0, false
}
