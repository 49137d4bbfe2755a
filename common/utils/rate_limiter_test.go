package utils

import "testing"

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d within burst should pass", i)
		}
	}
	if rl.Allow() {
		t.Fatalf("request beyond burst should be rejected")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	for rl.Allow() {
	}
	// 1000/s 的速率下，耗尽后很快就能拿到新令牌
	deadline := 100000
	for i := 0; i < deadline; i++ {
		if rl.Allow() {
			return
		}
	}
	t.Fatalf("limiter never refilled")
}
