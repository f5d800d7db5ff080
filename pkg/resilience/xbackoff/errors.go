package xbackoff

import "errors"

// 预定义错误
var (
	// ErrNilContext 上下文为 nil
	ErrNilContext = errors.New("xbackoff: context is nil")

	// ErrNilFunc 操作函数为 nil
	ErrNilFunc = errors.New("xbackoff: fn is nil")
)
