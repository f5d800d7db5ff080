package xbotwall

import "errors"

// 预定义错误
var (
	// ErrEmptyPattern 签名缺少正则表达式
	ErrEmptyPattern = errors.New("xbotwall: signature pattern is empty")

	// ErrInvalidPattern 签名正则编译失败
	ErrInvalidPattern = errors.New("xbotwall: signature pattern does not compile")

	// ErrNoSignatures 配置中没有任何签名
	ErrNoSignatures = errors.New("xbotwall: config contains no signatures")
)
