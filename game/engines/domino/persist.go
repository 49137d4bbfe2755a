package domino

import (
	"context"
	"sync"
	"time"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/entity"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/game/share"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GamePersister 对局持久化组件
// 负责在对局过程中收集事件，整局结束后异步写入数据库
type GamePersister struct {
	repo         repository.GameRecordRepository
	matchRecord  *entity.MatchRecord
	rounds       []*entity.RoundRecord // 所有回合的数组（整局结束后一次性保存）
	currentRound *entity.RoundRecord   // 当前回合（方便操作）
	eventMu      sync.Mutex            // 保护事件收集的并发安全
	closed       bool
}

// NewGamePersister 创建持久化组件
func NewGamePersister(repo repository.GameRecordRepository, roomID, mode string, targetScore int, userMap map[string]*share.UserInfo) *GamePersister {
	// 构建玩家信息
	players := make([]entity.PlayerInfo, 0, len(userMap))
	for userID, userInfo := range userMap {
		players = append(players, entity.PlayerInfo{
			UserID:    userID,
			SeatIndex: userInfo.SeatIndex,
			Nickname:  userInfo.Nickname,
			IsBot:     userInfo.IsBot,
		})
	}

	matchRecord := entity.NewMatchRecord(roomID, mode, targetScore, players)

	return &GamePersister{
		repo:        repo,
		matchRecord: matchRecord,
		rounds:      make([]*entity.RoundRecord, 0, 8),
		closed:      false,
	}
}

// GetMatchRecordID 获取整局记录 ID
func (gp *GamePersister) GetMatchRecordID() primitive.ObjectID {
	return gp.matchRecord.ID
}

// StartRound 开始新的回合
func (gp *GamePersister) StartRound(roundNumber, openerSeat int) {
	if gp.closed {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	gp.currentRound = entity.NewRoundRecord(gp.matchRecord.ID, roundNumber, openerSeat)
	gp.rounds = append(gp.rounds, gp.currentRound)

	gp.currentRound.AddEvent(entity.EventTypeRoundStart, -1, map[string]interface{}{
		"opener_seat": openerSeat,
	})
}

// RecordPlaceTile 记录出牌事件
func (gp *GamePersister) RecordPlaceTile(seatIndex int, tile Tile, side Side) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	data := map[string]interface{}{
		"tile": map[string]interface{}{
			"top":    tile.Top,
			"bottom": tile.Bottom,
		},
		"side": side.String(),
	}
	gp.currentRound.AddEvent(entity.EventTypePlaceTile, seatIndex, data)
}

// RecordPassTurn 记录过牌事件
func (gp *GamePersister) RecordPassTurn(seatIndex int) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	gp.currentRound.AddEvent(entity.EventTypePassTurn, seatIndex, map[string]interface{}{})
}

// RecordSpecialScore 记录特殊得分事件
func (gp *GamePersister) RecordSpecialScore(special *SpecialScore) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	data := map[string]interface{}{
		"type":   special.Type,
		"team":   special.Team,
		"points": special.Points,
	}
	eventType := entity.EventTypeSpecialScore
	if special.Type == ScoreTranque {
		eventType = entity.EventTypeTranque
	}
	gp.currentRound.AddEvent(eventType, special.Seat, data)
}

// RecordBotTakeover 记录掉线托管事件
func (gp *GamePersister) RecordBotTakeover(seatIndex int) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	gp.currentRound.AddEvent(entity.EventTypeBotTakeover, seatIndex, map[string]interface{}{})
}

// RecordPlayerReturn 记录玩家重连回归事件
func (gp *GamePersister) RecordPlayerReturn(seatIndex int) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	gp.currentRound.AddEvent(entity.EventTypePlayerReturn, seatIndex, map[string]interface{}{})
}

// CompleteRound 完成当前回合（设置回合结果）
// bonus 是本回合特殊得分合计
func (gp *GamePersister) CompleteRound(round *RoundResult, bonus int) {
	if gp.closed || gp.currentRound == nil {
		return
	}

	gp.eventMu.Lock()
	defer gp.eventMu.Unlock()

	nextOpener := round.WinnerSeat
	if round.MatchOver {
		nextOpener = -1
	}

	result := &entity.RoundResult{
		EndType:    round.EndType,
		WinnerSeat: round.WinnerSeat,
		WinnerTeam: round.WinnerTeam,
		Points:     round.Points,
		Bonus:      bonus,
		Scores:     round.Scores,
		NextOpener: nextOpener,
	}
	gp.currentRound.CompleteRound(result)

	gp.currentRound.AddEvent(entity.EventTypeRoundEnd, -1, map[string]interface{}{
		"end_type": round.EndType,
	})
}

// FinalizeGame 完成整局（异步写入数据库）
func (gp *GamePersister) FinalizeGame(round *RoundResult, roundsTotal int) {
	if gp.closed {
		return
	}

	gp.eventMu.Lock()
	gp.closed = true
	rounds := make([]*entity.RoundRecord, len(gp.rounds))
	copy(rounds, gp.rounds) // 复制数组，避免在异步中访问时数据被修改
	gp.eventMu.Unlock()

	finalResult := &entity.MatchFinalResult{
		WinnerTeam:  round.MatchWinner,
		TeamScores:  round.Scores,
		RoundsTotal: roundsTotal,
		EndReason:   "target_reached",
	}
	gp.matchRecord.CompleteMatch(finalResult)

	go gp.flush(rounds)
}

// AbortMatch 中止整局（异常或玩家全部退出）
func (gp *GamePersister) AbortMatch(reason string) {
	if gp.closed {
		return
	}

	gp.eventMu.Lock()
	gp.closed = true
	rounds := make([]*entity.RoundRecord, len(gp.rounds))
	copy(rounds, gp.rounds)
	gp.eventMu.Unlock()

	gp.matchRecord.AbortMatch()
	log.Info("对局中止落库: roomID=%s, reason=%s", gp.matchRecord.RoomID, reason)

	go gp.flush(rounds)
}

func (gp *GamePersister) flush(rounds []*entity.RoundRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 保存整局记录（元数据）
	if err := gp.repo.SaveMatchRecord(ctx, gp.matchRecord); err != nil {
		log.Error("保存整局记录失败: %v", err)
		return
	}

	// 批量保存所有回合记录（每个回合一个文档）
	if len(rounds) > 0 {
		if err := gp.repo.SaveRoundRecords(ctx, rounds); err != nil {
			log.Error("批量保存回合记录失败: %v", err)
			return
		}
	}

	log.Info("对局记录保存成功: matchRecordID=%s, rounds=%d", gp.matchRecord.ID.Hex(), len(rounds))
}
