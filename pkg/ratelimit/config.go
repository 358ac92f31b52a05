package ratelimit

import "time"

// Config 限流控制器配置
type Config struct {
	RedisKeyPrefix string        // Redis键前缀
	DefaultRate    float64       // 默认每秒请求数
	DefaultBurst   int           // 默认突发请求数
	WindowSize     time.Duration // 滑动窗口大小
	WindowLimit    int           // 窗口请求限制
	DelayMin       time.Duration // 两次抓取之间的最小延迟
	DelayMax       time.Duration // 两次抓取之间的最大延迟
}
