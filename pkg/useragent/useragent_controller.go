// Package useragent 管理抓取请求使用的浏览器UA
// 维护一个桌面Chrome的UA池，按权重随机取用，降低请求指纹的单一性
package useragent

import (
	"math/rand"
	"sync"
)

// UserAgent 定义单个UA的结构
type UserAgent struct {
	Value  string // UA字符串
	Weight int    // 使用权重
}

// defaultUserAgents 默认UA池
// 与真实桌面Chrome保持一致，避免出现爬虫特征
var defaultUserAgents = []UserAgent{
	{Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", Weight: 3},
	{Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36", Weight: 2},
	{Value: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", Weight: 2},
	{Value: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", Weight: 1},
}

// UserAgentController UA管理器
type UserAgentController struct {
	pool        []UserAgent // UA池
	totalWeight int         // 权重总和
	mu          sync.RWMutex
}

// NewUserAgentController 创建UA管理器
// custom 不为空时覆盖默认UA池，每项权重为1
func NewUserAgentController(custom []string) *UserAgentController {
	uc := &UserAgentController{}

	if len(custom) > 0 {
		for _, value := range custom {
			uc.pool = append(uc.pool, UserAgent{Value: value, Weight: 1})
		}
	} else {
		uc.pool = append(uc.pool, defaultUserAgents...)
	}

	for _, ua := range uc.pool {
		uc.totalWeight += ua.Weight
	}

	return uc
}

// Random 按权重随机返回一个UA字符串
func (uc *UserAgentController) Random() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if len(uc.pool) == 0 {
		return ""
	}

	n := rand.Intn(uc.totalWeight)
	for _, ua := range uc.pool {
		n -= ua.Weight
		if n < 0 {
			return ua.Value
		}
	}
	return uc.pool[0].Value
}
