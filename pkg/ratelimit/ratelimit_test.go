package ratelimit

import (
	"context"
	"testing"
	"time"
)

// TestPauseJitterBounds 测试随机延迟落在配置区间内
func TestPauseJitterBounds(t *testing.T) {
	rlc := NewRateLimitController(nil, Config{
		DelayMin: 20 * time.Millisecond,
		DelayMax: 60 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := rlc.Pause(context.Background()); err != nil {
			t.Fatalf("延迟执行失败: %v", err)
		}
		elapsed := time.Since(start)

		if elapsed < 20*time.Millisecond {
			t.Errorf("延迟低于下限: %v", elapsed)
		}
		// 留出调度余量
		if elapsed > 200*time.Millisecond {
			t.Errorf("延迟远超上限: %v", elapsed)
		}
	}
}

// TestPauseCanceled 测试上下文取消时立即返回
func TestPauseCanceled(t *testing.T) {
	rlc := NewRateLimitController(nil, Config{
		DelayMin: 10 * time.Second,
		DelayMax: 20 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := rlc.Pause(ctx); err == nil {
		t.Error("取消后应返回错误")
	}
	if time.Since(start) > time.Second {
		t.Error("取消后应立即返回而不是等待延迟结束")
	}
}

// TestAllowTokenBucket 测试本地令牌桶：耗尽突发额度后拒绝请求
func TestAllowTokenBucket(t *testing.T) {
	rlc := NewRateLimitController(nil, Config{
		DefaultRate:  0.001, // 补充极慢，测试期间等于不补充
		DefaultBurst: 2,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := rlc.Allow(ctx, "www.amazon.in"); err != nil {
			t.Fatalf("突发额度内的第 %d 次请求不应被拒绝: %v", i+1, err)
		}
	}
	if err := rlc.Allow(ctx, "www.amazon.in"); err == nil {
		t.Error("耗尽突发额度后应被限流")
	}

	// 不同域名使用独立的令牌桶
	if err := rlc.Allow(ctx, "www.flipkart.com"); err != nil {
		t.Errorf("其他域名不应受影响: %v", err)
	}
}

// TestSetRate 测试按域名覆盖速率
func TestSetRate(t *testing.T) {
	rlc := NewRateLimitController(nil, Config{DefaultRate: 0.001, DefaultBurst: 1})
	rlc.SetRate("www.myntra.com", 0.001, 5)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := rlc.Allow(ctx, "www.myntra.com"); err != nil {
			t.Fatalf("覆盖后的突发额度内请求不应被拒绝: %v", err)
		}
	}
	if err := rlc.Allow(ctx, "www.myntra.com"); err == nil {
		t.Error("超出覆盖后的突发额度应被限流")
	}
}

// TestDelayDefaults 测试延迟配置的默认值修正
func TestDelayDefaults(t *testing.T) {
	rlc := NewRateLimitController(nil, Config{})
	if rlc.config.DelayMin != time.Second {
		t.Errorf("延迟下限默认值错误: %v", rlc.config.DelayMin)
	}
	if rlc.config.DelayMax != 2*time.Second {
		t.Errorf("延迟上限默认值错误: %v", rlc.config.DelayMax)
	}
}
