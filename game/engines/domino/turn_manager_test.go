package domino

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPlayerTickerTimeout(t *testing.T) {
	pt := NewPlayerTicker(1)
	var fired atomic.Bool
	pt.SetOnTimeout(func() { fired.Store(true) })

	if err := pt.Start(1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)

	if pt.GetState() != StateTimeout {
		t.Fatalf("state expected StateTimeout, got %v", pt.GetState())
	}
	if !fired.Load() {
		t.Fatalf("timeout callback should fire")
	}
	if pt.Available != 0 {
		t.Fatalf("available time expected 0 after timeout, got %d", pt.Available)
	}
}

func TestPlayerTickerStopKeepsRemainder(t *testing.T) {
	pt := NewPlayerTicker(10)
	var stopped atomic.Bool
	pt.SetOnStop(func() { stopped.Store(true) })

	if err := pt.Start(10); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if !pt.Stop() {
		t.Fatalf("stop should succeed while running")
	}
	time.Sleep(100 * time.Millisecond)

	if pt.GetState() != StateStopped {
		t.Fatalf("state expected StateStopped, got %v", pt.GetState())
	}
	if !stopped.Load() {
		t.Fatalf("stop callback should fire")
	}
	// 用时不足一秒，剩余时间不应归零
	if pt.Available <= 0 || pt.Available > 10 {
		t.Fatalf("available time expected within (0,10], got %d", pt.Available)
	}
}

func TestPlayerTickerStartValidation(t *testing.T) {
	pt := NewPlayerTicker(5)
	if err := pt.Start(10); err == nil {
		t.Fatalf("start beyond available time should fail")
	}

	if err := pt.Start(5); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := pt.Start(1); err == nil {
		t.Fatalf("double start should fail")
	}
	pt.Stop()
}

func TestPlayerTickerStopWhenIdle(t *testing.T) {
	pt := NewPlayerTicker(5)
	if pt.Stop() {
		t.Fatalf("stop on an idle ticker should return false")
	}
}

func newTestTurnManager(n, totalTime int) *TurnManager {
	tickers := make([]*PlayerTicker, n)
	for i := range tickers {
		tickers[i] = NewPlayerTicker(totalTime)
	}
	return NewTurnManager(tickers)
}

func TestTurnManagerEnterPlayPhase(t *testing.T) {
	tm := newTestTurnManager(4, 10)

	if err := tm.EnterPlayPhase(7, 0); err == nil {
		t.Fatalf("invalid seat should fail")
	}

	if err := tm.EnterPlayPhase(2, 25); err != nil {
		t.Fatalf("enter play phase failed: %v", err)
	}
	if tm.GetCurrentPlayer() != 2 || tm.GetState() != TurnStateWaitPlay {
		t.Fatalf("turn pointer/state expected (2, WaitPlay), got (%d, %v)", tm.TurnPointer, tm.State)
	}
	if tm.GetPlayerTicker(2).GetState() != StateRunning {
		t.Fatalf("current player's ticker should be running")
	}
	// 10 + 25 补偿超过上限，截到 DefaultMaxTurnTime
	if got := tm.GetPlayerTicker(2).Available; got != DefaultMaxTurnTime {
		t.Fatalf("allocated time expected %d, got %d", DefaultMaxTurnTime, got)
	}

	tm.EnterSettlingPhase()
}

func TestTurnManagerSettlingStopsTickers(t *testing.T) {
	tm := newTestTurnManager(4, 10)
	if err := tm.EnterPlayPhase(0, 0); err != nil {
		t.Fatalf("enter play phase failed: %v", err)
	}
	// 等计时 goroutine 把 cancel 挂上
	time.Sleep(100 * time.Millisecond)

	tm.EnterSettlingPhase()
	time.Sleep(100 * time.Millisecond)

	if tm.GetState() != TurnStateSettling {
		t.Fatalf("state expected Settling, got %v", tm.GetState())
	}
	if tm.GetPlayerTicker(0).GetState() == StateRunning {
		t.Fatalf("tickers should be stopped after settling")
	}
}
