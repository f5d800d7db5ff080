package xbotwall

import "sync"

// maxBodyScan 参与正则匹配的响应体上限。
// 拦截页和挑战页的标记都在页面前部，100KB 足够命中，
// 同时避免在超大响应体上做正则扫描。
const maxBodyScan = 100 * 1024

// Verdict 反爬分类裁决。
type Verdict int

const (
	// VerdictNone 未识别到反爬拦截，响应是普通内容或普通错误
	VerdictNone Verdict = iota

	// VerdictChallenge 交互式挑战页，需要浏览器参与求解
	VerdictChallenge

	// VerdictBlocked 明确的拦截页，重试同样的请求不会成功
	VerdictBlocked
)

// String 返回裁决的可读名称。
func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictChallenge:
		return "challenge"
	case VerdictBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Result 携带命中细节的裁决，用于日志与调参。
type Result struct {
	// Verdict 裁决
	Verdict Verdict

	// Signature 命中的签名名，未命中时为空
	Signature string
}

// Classifier 反爬分类器。构造后不可变，可被任意 goroutine 共享。
type Classifier struct {
	statuses  map[int]struct{}
	blocked   []compiled
	challenge []compiled
}

// NewClassifier 按配置构造分类器。签名编译失败时返回错误并指明
// 出错的签名名。
func NewClassifier(cfg Config) (*Classifier, error) {
	if len(cfg.Blocked) == 0 && len(cfg.Challenge) == 0 {
		return nil, ErrNoSignatures
	}

	blocked, err := compileAll(cfg.Blocked)
	if err != nil {
		return nil, err
	}
	challenge, err := compileAll(cfg.Challenge)
	if err != nil {
		return nil, err
	}

	statuses := cfg.Statuses
	if len(statuses) == 0 {
		statuses = []int{403, 503}
	}
	set := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}

	return &Classifier{
		statuses:  set,
		blocked:   blocked,
		challenge: challenge,
	}, nil
}

// Classify 对一次完成的 HTTP 交换做反爬分类。
//
// 状态码不在受检集合时直接返回 VerdictNone。受检状态码下先查
// 拦截签名再查挑战签名；都未命中说明这只是普通错误（真实故障、
// 被映射成 503 的 404 等），按 VerdictNone 处理。
func (c *Classifier) Classify(statusCode int, body []byte) Verdict {
	return c.Inspect(statusCode, body).Verdict
}

// Inspect 与 Classify 相同，但返回命中的签名名。
func (c *Classifier) Inspect(statusCode int, body []byte) Result {
	if _, watched := c.statuses[statusCode]; !watched {
		return Result{Verdict: VerdictNone}
	}

	if len(body) > maxBodyScan {
		body = body[:maxBodyScan]
	}

	// 拦截页可能捎带通用挑战标记，先查拦截签名
	for _, s := range c.blocked {
		if s.re.Match(body) {
			return Result{Verdict: VerdictBlocked, Signature: s.name}
		}
	}
	for _, s := range c.challenge {
		if s.re.Match(body) {
			return Result{Verdict: VerdictChallenge, Signature: s.name}
		}
	}
	return Result{Verdict: VerdictNone}
}

// 内置默认分类器，惰性构造。默认配置的签名保证可编译。
var defaultClassifier = sync.OnceValue(func() *Classifier {
	c, err := NewClassifier(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
})

// Classify 用内置 Cloudflare 签名集做分类。
func Classify(statusCode int, body []byte) Verdict {
	return defaultClassifier().Classify(statusCode, body)
}

// Inspect 用内置 Cloudflare 签名集做分类，返回命中细节。
func Inspect(statusCode int, body []byte) Result {
	return defaultClassifier().Inspect(statusCode, body)
}
