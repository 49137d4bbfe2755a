package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchRecord 整局记录元数据（聚合根）
// 一局多米诺由若干回合组成，先到目标分的队伍/玩家获胜
type MatchRecord struct {
	ID          primitive.ObjectID `bson:"_id"`
	RoomID      string             `bson:"room_id"`
	GameType    string             `bson:"game_type"` // "dominican_domino"
	Mode        string             `bson:"mode"`      // dominican:pairs4 / dominican:individual4 / dominican:individual2
	TargetScore int                `bson:"target_score"`
	Players     []PlayerInfo       `bson:"players"` // 按座位顺序
	StartTime   time.Time          `bson:"start_time"`
	EndTime     time.Time          `bson:"end_time"`
	Duration    int                `bson:"duration"` // 秒
	FinalResult *MatchFinalResult  `bson:"final_result"`
	Status      string             `bson:"status"` // "in_progress", "completed", "aborted"
	CreatedAt   time.Time          `bson:"created_at"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	UserID    string `bson:"user_id"`
	SeatIndex int    `bson:"seat_index"`
	Nickname  string `bson:"nickname,omitempty"`
	IsBot     bool   `bson:"is_bot,omitempty"`
}

// MatchFinalResult 整局最终结果
type MatchFinalResult struct {
	WinnerTeam  int    `bson:"winner_team"`  // 队伍模式下 0/1，个人模式下为获胜座位
	TeamScores  []int  `bson:"team_scores"`  // 各队伍/各座位的累计分
	RoundsTotal int    `bson:"rounds_total"` // 总回合数
	EndReason   string `bson:"end_reason"`   // "target_reached", "aborted"
}

// NewMatchRecord 创建整局记录
func NewMatchRecord(roomID, mode string, targetScore int, players []PlayerInfo) *MatchRecord {
	return &MatchRecord{
		ID:          primitive.NewObjectID(),
		RoomID:      roomID,
		GameType:    "dominican_domino",
		Mode:        mode,
		TargetScore: targetScore,
		Players:     players,
		StartTime:   time.Now(),
		Status:      "in_progress",
		CreatedAt:   time.Now(),
	}
}

// CompleteMatch 完成整局
func (mr *MatchRecord) CompleteMatch(finalResult *MatchFinalResult) {
	mr.EndTime = time.Now()
	mr.Duration = int(mr.EndTime.Sub(mr.StartTime).Seconds())
	mr.FinalResult = finalResult
	mr.Status = "completed"
}

// AbortMatch 中止整局（例如所有真人玩家掉线）
func (mr *MatchRecord) AbortMatch() {
	mr.EndTime = time.Now()
	mr.Duration = int(mr.EndTime.Sub(mr.StartTime).Seconds())
	mr.Status = "aborted"
}
