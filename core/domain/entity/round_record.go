package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundRecord 回合记录（每回合一个文档）
// 存储该回合的事件流和结算结果
type RoundRecord struct {
	ID            primitive.ObjectID `bson:"_id"`
	MatchRecordID primitive.ObjectID `bson:"match_record_id"`
	RoundNumber   int                `bson:"round_number"` // 从 1 开始
	OpenerSeat    int                `bson:"opener_seat"`  // 首家座位
	Events        []RoundEvent       `bson:"events"`       // 事件流（按时间顺序）
	RoundResult   *RoundResult       `bson:"round_result"`
	StartTime     time.Time          `bson:"start_time"`
	EndTime       time.Time          `bson:"end_time"`
	Duration      int                `bson:"duration"` // 秒
	CreatedAt     time.Time          `bson:"created_at"`
}

// RoundEvent 回合事件（只存事件，不存快照）
type RoundEvent struct {
	Sequence  int                    `bson:"sequence"`   // 事件序号（该回合内递增）
	EventType string                 `bson:"event_type"` // 事件类型
	Timestamp time.Time              `bson:"timestamp"`
	SeatIndex int                    `bson:"seat_index"` // 操作玩家座位（-1 表示系统事件）
	Data      map[string]interface{} `bson:"data"`
}

// RoundResult 回合结算
type RoundResult struct {
	EndType    string `bson:"end_type"`    // "domino", "tranque"
	WinnerSeat int    `bson:"winner_seat"` // 获胜座位（tranque 时为结算出的赢家）
	WinnerTeam int    `bson:"winner_team"` // 队伍模式下 0/1，个人模式下等于 WinnerSeat
	Points     int    `bson:"points"`      // 本回合基础得分（对手剩牌点数合计）
	Bonus      int    `bson:"bonus"`       // 特殊得分合计（卡皮库阿等）
	Scores     []int  `bson:"scores"`      // 回合结束后的累计分（按队伍/座位）
	NextOpener int    `bson:"next_opener"` // 下回合首家（-1 表示整局结束）
}

// NewRoundRecord 创建回合记录
func NewRoundRecord(matchRecordID primitive.ObjectID, roundNumber, openerSeat int) *RoundRecord {
	return &RoundRecord{
		ID:            primitive.NewObjectID(),
		MatchRecordID: matchRecordID,
		RoundNumber:   roundNumber,
		OpenerSeat:    openerSeat,
		Events:        make([]RoundEvent, 0, 64),
		StartTime:     time.Now(),
		CreatedAt:     time.Now(),
	}
}

// AddEvent 添加事件
func (rr *RoundRecord) AddEvent(eventType string, seatIndex int, data map[string]interface{}) {
	event := RoundEvent{
		Sequence:  len(rr.Events),
		EventType: eventType,
		Timestamp: time.Now(),
		SeatIndex: seatIndex,
		Data:      data,
	}
	rr.Events = append(rr.Events, event)
}

// CompleteRound 完成回合
func (rr *RoundRecord) CompleteRound(result *RoundResult) {
	rr.EndTime = time.Now()
	rr.Duration = int(rr.EndTime.Sub(rr.StartTime).Seconds())
	rr.RoundResult = result
}

// 事件类型常量
const (
	EventTypeRoundStart   = "round_start"    // 回合开始，记录发牌
	EventTypePlaceTile    = "place_tile"     // 出牌
	EventTypePassTurn     = "pass_turn"      // 过牌
	EventTypeSpecialScore = "special_score"  // 特殊得分（pase de salida / pase corrido / capicúa / 罚分）
	EventTypeTranque      = "tranque"        // 锁局
	EventTypeRoundEnd     = "round_end"      // 回合结束
	EventTypeBotTakeover  = "bot_takeover"   // 掉线由机器人接管
	EventTypePlayerReturn = "player_return"  // 玩家重连回归
)
