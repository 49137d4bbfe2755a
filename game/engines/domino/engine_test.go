package domino

import (
	"testing"
	"time"

	"github.com/curetcore/dominodominicano/game"
	"github.com/curetcore/dominodominicano/game/share"
)

func newClosableEngine(t *testing.T) *DominicanDomino {
	t.Helper()
	eg := NewDominicanDomino(&game.Worker{}, ModeClassic, TeamIndividual, 2, BotMedium)
	users := map[string]*share.UserInfo{
		"bot-1": share.NewBotInfo("bot-1", "Juan", "medium"),
		"bot-2": share.NewBotInfo("bot-2", "Pedro", "medium"),
	}
	users["bot-1"].SeatIndex = 0
	users["bot-2"].SeatIndex = 1
	if err := eg.InitializeEngine("room-close-test", users); err != nil {
		t.Fatalf("initialize engine failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond) // 等匹配成功推送的 goroutine 跑完
	return eg
}

func TestEngineNotifyAfterClose(t *testing.T) {
	eg := newClosableEngine(t)
	eg.Close()

	// 计时器回调可能在 Close 之后才触发，事件入口必须保持安全
	eg.NotifyEvent(&StartRoundEvent{})
	eg.NotifyEvent(&TimeoutEvent{SeatIndex: 0})
	eg.NotifyEvent(&BotActEvent{SeatIndex: 1})
}

func TestEngineCloseIdempotent(t *testing.T) {
	eg := newClosableEngine(t)
	eg.Close()
	eg.Close()
}
