package xbotwall

import (
	"fmt"
	"regexp"

	"github.com/omeyang/fetchkit/pkg/config/xconfload"
)

// Signature 单条识别签名：命名的正则模式。
// Name 用于日志与错误定位，Pattern 在响应体上做大小写不敏感匹配。
type Signature struct {
	// Name 签名标识，如 "cf-block-page"
	Name string `json:"name" yaml:"name" koanf:"name"`

	// Pattern 正则表达式（编译时自动附加 (?i)）
	Pattern string `json:"pattern" yaml:"pattern" koanf:"pattern"`
}

// Config 分类器配置。签名集是数据而非算法契约：
// 反爬厂商的标记随版本漂移，应通过配置保持更新。
type Config struct {
	// Statuses 受检状态码集合，为空时使用 403/503
	Statuses []int `json:"statuses" yaml:"statuses" koanf:"statuses"`

	// Blocked 拦截页签名，先于 Challenge 检查
	Blocked []Signature `json:"blocked" yaml:"blocked" koanf:"blocked"`

	// Challenge 交互式挑战页签名
	Challenge []Signature `json:"challenge" yaml:"challenge" koanf:"challenge"`
}

// DefaultConfig 返回内置的 Cloudflare 签名集。
//
// 模式里用 [^<]{0,N} 而不是 .{0,N} 跨越元素边界，限制回溯深度，
// 降低在畸形 HTML 上的 ReDoS 风险。
func DefaultConfig() Config {
	return Config{
		Statuses: []int{403, 503},
		Blocked: []Signature{
			// 明确的拦截页标题与正文短语
			{Name: "cf-block-title", Pattern: `<title>[^<]{0,20}Attention Required![^<]{0,10}\|[^<]{0,10}Cloudflare</title>`},
			{Name: "cf-block-sorry", Pattern: `sorry,\s{1,5}you\s{1,5}have\s{1,5}been\s{1,5}blocked`},
			{Name: "cf-block-why", Pattern: `why\s{1,5}have\s{1,5}i\s{1,5}been\s{1,5}blocked`},
			// Cloudflare 1020 访问被拒
			{Name: "cf-error-1020", Pattern: `error[^<]{0,10}code[^<]{0,5}:?\s{0,5}1020`},
			// Cloudflare 1006/1007/1008 封禁
			{Name: "cf-error-ban", Pattern: `error[^<]{0,10}code[^<]{0,5}:?\s{0,5}100[678]`},
		},
		Challenge: []Signature{
			// 挑战页标题
			{Name: "cf-challenge-title", Pattern: `<title>[^<]{0,10}Just\s{1,5}a\s{1,5}moment`},
			// 挑战表单与运行标记
			{Name: "cf-challenge-form", Pattern: `id="challenge-form"`},
			{Name: "cf-challenge-running", Pattern: `cf-challenge-running`},
			// 指向挑战托管域的 iframe / 脚本
			{Name: "cf-challenge-iframe", Pattern: `challenges\.cloudflare\.com`},
			{Name: "cf-chl-opt", Pattern: `window\._cf_chl_opt`},
			// 浏览器校验提示语
			{Name: "cf-checking-browser", Pattern: `checking\s{1,5}(your\s{1,5})?browser`},
		},
	}
}

// Validate 验证配置：至少有一条签名，且全部模式可编译。
func (c Config) Validate() error {
	if len(c.Blocked) == 0 && len(c.Challenge) == 0 {
		return ErrNoSignatures
	}
	for _, sigs := range [][]Signature{c.Blocked, c.Challenge} {
		for _, s := range sigs {
			if _, err := s.compile(); err != nil {
				return err
			}
		}
	}
	return nil
}

// compiled 是编译后的签名。
type compiled struct {
	name string
	re   *regexp.Regexp
}

func (s Signature) compile() (compiled, error) {
	if s.Pattern == "" {
		return compiled{}, fmt.Errorf("%w: %s", ErrEmptyPattern, s.Name)
	}
	re, err := regexp.Compile("(?i)" + s.Pattern)
	if err != nil {
		return compiled{}, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, s.Name, err)
	}
	return compiled{name: s.Name, re: re}, nil
}

func compileAll(sigs []Signature) ([]compiled, error) {
	out := make([]compiled, 0, len(sigs))
	for _, s := range sigs {
		c, err := s.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadConfig 从配置源的指定路径加载并验证签名集。
// path 为空串时读取整个配置树。
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
