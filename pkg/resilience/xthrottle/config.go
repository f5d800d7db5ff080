package xthrottle

import (
	"fmt"
	"time"

	"github.com/omeyang/fetchkit/pkg/config/xconfload"
)

// Budget 单主机限速预算：period 滚动窗口内最多 permits 次准入。
// 不可变，构造时提供。
type Budget struct {
	// Permits 窗口内的准入名额，必须大于 0。
	Permits int `json:"permits" yaml:"permits" koanf:"permits"`

	// Period 滚动窗口长度，必须大于 0。
	Period time.Duration `json:"period" yaml:"period" koanf:"period"`
}

// Validate 验证预算是否有效。
func (b Budget) Validate() error {
	if b.Permits <= 0 {
		return fmt.Errorf("%w: permits must be greater than 0, got %d", ErrInvalidBudget, b.Permits)
	}
	if b.Period <= 0 {
		return fmt.Errorf("%w: period must be greater than 0, got %s", ErrInvalidBudget, b.Period)
	}
	return nil
}

// Config Gate 配置。
type Config struct {
	// Default 未单独配置的主机使用的预算。
	Default Budget `json:"default" yaml:"default" koanf:"default"`

	// Hosts 按主机覆盖的预算。键在使用时做与请求相同的归一化
	// （小写、去端口），因此 "API.Example.Org:443" 与 "api.example.org"
	// 指向同一预算。
	Hosts map[string]Budget `json:"hosts" yaml:"hosts" koanf:"hosts"`
}

// Validate 验证配置是否有效。
func (c Config) Validate() error {
	if err := c.Default.Validate(); err != nil {
		return fmt.Errorf("default: %w", err)
	}
	for host, b := range c.Hosts {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("hosts[%s]: %w", host, err)
		}
	}
	return nil
}

// budgetFor 返回归一化主机键对应的预算。
func (c Config) budgetFor(host string) Budget {
	for h, b := range c.Hosts {
		if NormalizeHost(h) == host {
			return b
		}
	}
	return c.Default
}

// LoadConfig 从配置源的指定路径加载并验证 Gate 配置。
// path 为空串时读取整个配置树。
//
// Hosts 的键是主机名，含有 "."。koanf 用路径分隔符展开嵌套键，
// 默认分隔符也是 "."，会把主机名错误拆成嵌套路径，配置源必须用
// xconfload.WithDelim 指定其他分隔符（如 "::"）。
//
// 设计决策: 加载失败返回错误而不是静默退回默认配置——无预算的门
// 要么全拒要么全放，都比明确的加载失败更危险。
func LoadConfig(src *xconfload.Source, path string) (Config, error) {
	var cfg Config
	if err := src.Unmarshal(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
