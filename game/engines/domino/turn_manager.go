package domino

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type TickerState int

const (
	StateIdle    TickerState = iota // 空闲
	StateRunning                    // 计时中
	StateStopped                    // 已停止
	StateTimeout                    // 已超时
)

type TurnState int

const (
	TurnStateIdle     TurnState = iota // 等待开始
	TurnStateWaitPlay                  // 等待当前玩家出牌或过牌
	TurnStateSettling                  // 回合结算中
)

// TurnManager 回合管理器
// 多米诺没有抢牌反应阶段，始终是单人出牌的状态机
type TurnManager struct {
	TurnPointer int       // 当前出牌玩家座位
	State       TurnState // 当前回合状态
	Tickers     []*PlayerTicker
}

// NewTurnManager 创建新的回合管理器
func NewTurnManager(tickers []*PlayerTicker) *TurnManager {
	return &TurnManager{
		TurnPointer: 0,
		State:       TurnStateIdle,
		Tickers:     tickers,
	}
}

// GetCurrentPlayer 获取当前出牌玩家座位
func (tm *TurnManager) GetCurrentPlayer() int {
	return tm.TurnPointer
}

// GetState 获取当前回合状态
func (tm *TurnManager) GetState() TurnState {
	return tm.State
}

func (tm *TurnManager) stopAllTickers() {
	for _, ticker := range tm.Tickers {
		if ticker.GetState() == StateRunning {
			ticker.Stop()
		}
	}
}

// EnterPlayPhase 进入出牌阶段
// roundCompensation: 本回合补偿时间（秒）
func (tm *TurnManager) EnterPlayPhase(seatIndex int, roundCompensation int) error {
	if seatIndex < 0 || seatIndex >= len(tm.Tickers) {
		return fmt.Errorf("无效的座位索引: %d", seatIndex)
	}

	tm.stopAllTickers()
	tm.TurnPointer = seatIndex
	tm.State = TurnStateWaitPlay

	// 分配时间 = 玩家总剩余时间 + 本回合补偿
	ticker := tm.Tickers[seatIndex]
	allocatedTime := ticker.Available + roundCompensation
	if allocatedTime > DefaultMaxTurnTime {
		allocatedTime = DefaultMaxTurnTime
	}
	ticker.SetAvailable(allocatedTime)
	if err := ticker.Start(allocatedTime); err != nil {
		return fmt.Errorf("启动出牌计时失败: %v", err)
	}

	return nil
}

// EnterSettlingPhase 进入回合结算阶段，停止所有计时
func (tm *TurnManager) EnterSettlingPhase() {
	tm.stopAllTickers()
	tm.State = TurnStateSettling
}

// GetPlayerTicker 获取玩家的计时器
func (tm *TurnManager) GetPlayerTicker(seatIndex int) *PlayerTicker {
	return tm.Tickers[seatIndex]
}

type PlayerTicker struct {
	// 时间管理（单位：秒）
	Available      int       // 总剩余时间（跨回合累计）
	RoundStartTime time.Time // 本回合开始时间

	// 状态管理
	State     TickerState
	isRunning bool // 防止重复启动
	ctx       context.Context
	cancel    context.CancelFunc

	// 回调函数
	onTimeout func()
	onStop    func()

	// 并发控制
	sync.RWMutex
}

// NewPlayerTicker 创建新的玩家计时器
func NewPlayerTicker(totalTime int) *PlayerTicker {
	return &PlayerTicker{
		Available: totalTime,
		State:     StateIdle,
		isRunning: false,
	}
}

// Start 启动计时
// duration: 本次分配的时间（秒）
func (pt *PlayerTicker) Start(duration int) error {
	pt.Lock()
	defer pt.Unlock()

	if pt.isRunning {
		return fmt.Errorf("计时已在运行，无法重复启动")
	}
	if pt.Available < duration {
		return fmt.Errorf("剩余时间 %d 秒不足 %d 秒", pt.Available, duration)
	}

	pt.isRunning = true
	pt.State = StateRunning
	pt.RoundStartTime = time.Now()

	go pt.timerLoop(duration)

	return nil
}

// timerLoop 计时循环（在 goroutine 中运行）
func (pt *PlayerTicker) timerLoop(duration int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(duration)*time.Second)
	defer cancel()
	pt.Lock()
	pt.ctx = ctx
	pt.cancel = cancel
	pt.Unlock()
	<-ctx.Done()

	pt.Lock()
	defer pt.Unlock()

	// 区分超时和被取消
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		pt.State = StateTimeout
		pt.isRunning = false
		pt.Available = 0

		if pt.onTimeout != nil {
			pt.onTimeout()
		}
	} else if errors.Is(ctx.Err(), context.Canceled) {
		// 被取消处理（玩家操作）
		usedTime := int(time.Since(pt.RoundStartTime).Seconds())
		pt.Available = max(0, pt.Available-usedTime)
		pt.State = StateStopped
		pt.isRunning = false

		if pt.onStop != nil {
			pt.onStop()
		}
	}
}

// Stop 停止计时
// 返回是否成功抢在超时前停掉
func (pt *PlayerTicker) Stop() bool {
	pt.Lock()
	defer pt.Unlock()
	if !pt.isRunning || pt.cancel == nil {
		return false
	}
	pt.cancel()
	return true
}

func (pt *PlayerTicker) SetAvailable(available int) int {
	pt.Lock()
	defer pt.Unlock()
	pt.Available = available
	return pt.Available
}

// GetState 获取当前状态
func (pt *PlayerTicker) GetState() TickerState {
	pt.RLock()
	defer pt.RUnlock()
	return pt.State
}

// SetOnTimeout 设置超时回调
func (pt *PlayerTicker) SetOnTimeout(callback func()) {
	pt.Lock()
	defer pt.Unlock()
	pt.onTimeout = callback
}

// SetOnStop 设置停止回调
func (pt *PlayerTicker) SetOnStop(callback func()) {
	pt.Lock()
	defer pt.Unlock()
	pt.onStop = callback
}
