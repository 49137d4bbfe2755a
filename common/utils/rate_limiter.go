package utils

import (
	"sync"
	"time"
)

// RateLimiter 令牌桶限流器，connector 用来挡 websocket 握手洪峰
// 桶容量即允许的瞬时突发量，令牌按每秒 perSec 个匀速补充
type RateLimiter struct {
	mu     sync.Mutex
	perSec float64
	burst  float64
	tokens float64
	last   time.Time
}

// NewRateLimiter 创建限流器
// perSecond: 每秒补充的令牌数
// burst: 桶容量
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	return &RateLimiter{
		perSec: float64(perSecond),
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Allow 取一枚令牌，取不到说明当前请求超限
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens = min(rl.burst, rl.tokens+now.Sub(rl.last).Seconds()*rl.perSec)
	rl.last = now

	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}
