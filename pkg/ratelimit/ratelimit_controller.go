// Package ratelimit 控制对目标站点的请求频率
// 本地令牌桶做单机限流，Redis滑动窗口做跨实例限流
// 商品之间的随机延迟是有意的退避，用于规避站点的反爬频率检测
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"price_tracker/pkg/redis"
)

// RateLimitController 请求频率限制控制器
type RateLimitController struct {
	redisClient *redis.RedisClient  // Redis客户端，用于分布式限流，可为空
	config      Config              // 配置信息
	limiters    map[string]*Limiter // 域名对应的限制器
	mu          sync.RWMutex        // 读写锁
}

// Limiter 单个限制器
type Limiter struct {
	rate       float64    // 每秒请求数
	burst      int        // 突发请求数
	tokens     float64    // 当前令牌数
	lastUpdate time.Time  // 上次更新时间
	mu         sync.Mutex // 互斥锁
}

// NewRateLimitController 创建新的限流控制器
// redisClient 为空时只做本地限流
func NewRateLimitController(redisClient *redis.RedisClient, config Config) *RateLimitController {
	if config.DelayMin <= 0 {
		config.DelayMin = time.Second
	}
	if config.DelayMax < config.DelayMin {
		config.DelayMax = 2 * config.DelayMin
	}

	return &RateLimitController{
		redisClient: redisClient,
		config:      config,
		limiters:    make(map[string]*Limiter),
	}
}

// Allow 检查请求是否允许通过
func (rlc *RateLimitController) Allow(ctx context.Context, domain string) error {
	// 获取域名对应的限制器
	limiter := rlc.getLimiter(domain)

	// 检查分布式限流
	if err := rlc.checkDistributedLimit(ctx, domain); err != nil {
		return err
	}

	// 检查本地限流
	if !limiter.allow() {
		return fmt.Errorf("请求被限流: %s", domain)
	}

	return nil
}

// Pause 在两次抓取之间插入带抖动的随机延迟
// 延迟落在 [DelayMin, DelayMax) 区间内；上下文取消时立即返回
func (rlc *RateLimitController) Pause(ctx context.Context) error {
	span := rlc.config.DelayMax - rlc.config.DelayMin
	delay := rlc.config.DelayMin
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetRate 设置指定域名的请求速率
func (rlc *RateLimitController) SetRate(domain string, rate float64, burst int) {
	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	rlc.limiters[domain] = &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
	}
}

// getLimiter 获取或创建限制器
func (rlc *RateLimitController) getLimiter(domain string) *Limiter {
	rlc.mu.RLock()
	limiter, exists := rlc.limiters[domain]
	rlc.mu.RUnlock()

	if !exists {
		rlc.mu.Lock()
		// 双重检查
		if limiter, exists = rlc.limiters[domain]; !exists {
			limiter = &Limiter{
				rate:       rlc.config.DefaultRate,
				burst:      rlc.config.DefaultBurst,
				tokens:     float64(rlc.config.DefaultBurst),
				lastUpdate: time.Now(),
			}
			rlc.limiters[domain] = limiter
		}
		rlc.mu.Unlock()
	}

	return limiter
}

// allow 令牌桶算法实现
func (l *Limiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.tokens = min(float64(l.burst), l.tokens+elapsed*l.rate)
	l.lastUpdate = now

	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// checkDistributedLimit 检查分布式限流
func (rlc *RateLimitController) checkDistributedLimit(ctx context.Context, domain string) error {
	if rlc.redisClient == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		key := fmt.Sprintf("%s:%s:requests", rlc.config.RedisKeyPrefix, domain)

		// 使用Redis实现滑动窗口
		now := time.Now().Unix()
		windowStart := now - int64(rlc.config.WindowSize.Seconds())

		// 清理过期的请求记录
		err := rlc.redisClient.ZRemRangeByScore(key, 0, float64(windowStart))
		if err != nil {
			return err
		}

		// 添加当前请求记录
		err = rlc.redisClient.ZAdd(key, float64(now), fmt.Sprintf("%d", now))
		if err != nil {
			return err
		}

		// 获取当前窗口的请求数
		count, err := rlc.redisClient.ZCount(key, float64(windowStart), float64(now))
		if err != nil {
			return err
		}

		// 检查是否超过限制
		if count > rlc.config.WindowLimit {
			return fmt.Errorf("分布式限流: %s 超过窗口限制", domain)
		}
	}

	return nil
}

// min 返回两个float64中的较小值
func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
