package xconfload

import "errors"

var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconfload: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconfload: unsupported format")

	// ErrLoadFailed 表示配置读取或解析失败。
	ErrLoadFailed = errors.New("xconfload: load failed")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xconfload: unmarshal failed")

	// ErrWatchUnsupported 表示该 Source 不支持监视（如从字节流创建）。
	ErrWatchUnsupported = errors.New("xconfload: watch unsupported for this source")
)
