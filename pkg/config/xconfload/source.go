package xconfload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置数据格式。
type Format string

const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"
	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

const (
	defaultDelim = "."
	defaultTag   = "koanf"
)

// Source 是一份可重载的配置数据源。
// 必须通过 Load 或 FromBytes 创建，零值不可用。
type Source struct {
	k         atomic.Pointer[koanf.Koanf]
	path      string
	format    Format
	delim     string
	tag       string
	fromBytes bool
	reloadMu  sync.Mutex
}

// Option Source 可选配置。
type Option func(*Source)

// WithDelim 设置配置路径分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(s *Source) {
		if delim != "" {
			s.delim = delim
		}
	}
}

// WithTag 设置反序列化使用的结构体标签，默认 "koanf"。
func WithTag(tag string) Option {
	return func(s *Source) {
		if tag != "" {
			s.tag = tag
		}
	}
}

// Load 从文件创建配置源。
// 根据扩展名自动检测格式（.yaml/.yml/.json）。
func Load(path string, opts ...Option) (*Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	s := newSource(path, format, false, opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, format, s.delim)
	if err != nil {
		return nil, err
	}
	s.k.Store(k)
	return s, nil
}

// FromBytes 从字节数据创建配置源，需显式指定格式。
// 空数据创建空配置，Unmarshal 得到目标结构体的零值。
func FromBytes(data []byte, format Format, opts ...Option) (*Source, error) {
	if format != FormatYAML && format != FormatJSON {
		return nil, ErrUnsupportedFormat
	}

	s := newSource("", format, true, opts)

	k, err := parse(data, format, s.delim)
	if err != nil {
		return nil, err
	}
	s.k.Store(k)
	return s, nil
}

func newSource(path string, format Format, fromBytes bool, opts []Option) *Source {
	s := &Source{
		path:      path,
		format:    format,
		delim:     defaultDelim,
		tag:       defaultTag,
		fromBytes: fromBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Koanf 返回当前 koanf 实例（快照语义）。
func (s *Source) Koanf() *koanf.Koanf {
	return s.k.Load()
}

// Unmarshal 将指定路径的配置反序列化到目标结构体。
// path 为空串时反序列化整个配置树。
func (s *Source) Unmarshal(path string, target any) error {
	if err := s.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag: s.tag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取并解析配置文件。
// 解析失败时保留旧配置，返回错误；成功则原子替换。
// 从字节流创建的 Source 返回 ErrWatchUnsupported。
func (s *Source) Reload() error {
	if s.fromBytes {
		return ErrWatchUnsupported
	}

	// 序列化并发 Reload，防止慢读者用旧数据覆盖新数据
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, s.format, s.delim)
	if err != nil {
		return err
	}
	s.k.Store(k)
	return nil
}

// Path 返回配置文件路径，从字节流创建时为空串。
func (s *Source) Path() string {
	return s.path
}

// parse 将字节数据解析为新的 koanf 实例。
func parse(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return k, nil
}

// detectFormat 根据文件扩展名检测格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
