package strategy

import (
	"sync"

	"price_tracker/internal/model"
)

// Registry 策略注册中心
type Registry struct {
	strategies map[model.Platform]Strategy
	fallback   Strategy // 没有平台匹配时使用的通用策略
	mu         sync.RWMutex
}

// NewRegistry 创建策略注册中心
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[model.Platform]Strategy),
	}
}

// Register 注册一个平台策略
// PlatformOther 的策略同时作为兜底策略
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[s.Platform()] = s
	if s.Platform() == model.PlatformOther {
		r.fallback = s
	}
}

// Lookup 按平台获取策略，找不到时返回兜底策略
func (r *Registry) Lookup(platform model.Platform) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, exists := r.strategies[platform]; exists {
		return s, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Dispatch 根据URL选择策略
func (r *Registry) Dispatch(url string) (Strategy, bool) {
	return r.Lookup(model.DetectPlatform(url))
}
