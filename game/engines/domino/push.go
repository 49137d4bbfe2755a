package domino

import (
	"encoding/json"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	"github.com/curetcore/dominodominicano/game/share"
)

// 目前有 11 个推送场景，分别是
// 1. 匹配成功
// 2. 回合开始（含私有手牌）
// 3. 轮到谁出牌
// 4. 出牌
// 5. 过牌
// 6. 特殊得分（卡皮库阿 / pase / 罚分 / 锁局）
// 7. 手牌更新（仅自己可见）
// 8. 回合结束结算
// 9. 整局结束
// 10. 断线重连快照
// 11. 非法操作提示（仅操作者可见）

// pushMatchSuccessMessage 推送匹配成功消息
func (eg *DominicanDomino) pushMatchSuccessMessage(userMap map[string]*share.UserInfo) {
	players := make([]string, eg.NumPlayers)
	userIDs := make([]string, 0, len(userMap))
	for userID, userInfo := range userMap {
		if userInfo.SeatIndex >= 0 && userInfo.SeatIndex < eg.NumPlayers {
			players[userInfo.SeatIndex] = userID
		}
		userIDs = append(userIDs, userID)
	}

	matchSuccessMsg := &transfer.MatchSuccessDTO{
		RoomID:     eg.RoomID,
		GameNodeID: eg.Worker.NodeID,
		Players:    players,
		Mode:       eg.modeName(),
	}
	msgData, err := json.Marshal(matchSuccessMsg)
	if err != nil {
		log.Error("pushMatchSuccessMessage: 序列化消息失败: %v", err)
		return
	}
	eg.dispatchPush(userIDs, transfer.MatchingSuccess, transfer.MatchingSuccess, msgData)
	log.Info("pushMatchSuccessMessage: 推送匹配成功消息给 %d 个玩家", len(userIDs))
}

// broadcastRoundStart 推送回合开始（每个玩家收到不同的手牌）
func (eg *DominicanDomino) broadcastRoundStart(openerSeat int) {
	handCounts := eg.Match.HandCounts()
	scores := eg.Match.Scores()

	for seatIndex, user := range eg.Seats {
		if user == nil || user.IsBot {
			continue
		}

		roundStart := RoundStartDTO{
			RoundNumber: eg.Match.RoundNumber(),
			OpenerSeat:  openerSeat,
			CurrentTurn: openerSeat,
			HandTiles:   eg.Match.Hand(seatIndex),
			HandCounts:  handCounts,
			Scores:      scores,
			TargetScore: eg.Match.TargetScore,
			TeamMode:    string(eg.TeamMode),
		}

		data, err := json.Marshal(roundStart)
		if err != nil {
			log.Error("broadcastRoundStart: 序列化失败: %v", err)
			continue
		}
		eg.dispatchPush([]string{user.UserID}, transfer.GamePush, transfer.GameplayRoundStart, data)
	}

	log.Info("broadcastRoundStart: 推送回合 %d 开始给所有玩家", eg.Match.RoundNumber())
}

// broadcastTurn 广播轮到谁出牌
func (eg *DominicanDomino) broadcastTurn(seatIndex int) {
	ticker := eg.TurnManager.GetPlayerTicker(seatIndex)
	dto := TurnDTO{
		SeatIndex: seatIndex,
		TimeLimit: ticker.Available,
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastTurn: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayTurn, data)
}

// broadcastPlace 广播出牌
func (eg *DominicanDomino) broadcastPlace(seatIndex int, result *PlayResult) {
	left, right := eg.Match.Ends()
	dto := PlaceDTO{
		SeatIndex:  seatIndex,
		Tile:       result.Tile,
		Side:       result.Side.String(),
		NextSeat:   result.NextSeat,
		HandCounts: eg.Match.HandCounts(),
		LeftEnd:    left,
		RightEnd:   right,
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastPlace: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayPlace, data)
}

// broadcastPass 广播过牌
func (eg *DominicanDomino) broadcastPass(seatIndex int, result *PassResult) {
	dto := PassDTO{
		SeatIndex: seatIndex,
		NextSeat:  result.NextSeat,
		Blocked:   result.Blocked,
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastPass: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayPass, data)
}

// broadcastSpecialScore 广播特殊得分
func (eg *DominicanDomino) broadcastSpecialScore(special *SpecialScore) {
	dto := SpecialScoreDTO{
		Special: *special,
		Scores:  eg.Match.Scores(),
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastSpecialScore: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayScore, data)
}

// pushHandUpdate 推送手牌更新（仅自己可见）
func (eg *DominicanDomino) pushHandUpdate(seatIndex int) {
	user := eg.Seats[seatIndex]
	if user == nil || user.IsBot {
		return
	}
	dto := HandUpdateDTO{HandTiles: eg.Match.Hand(seatIndex)}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("pushHandUpdate: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush([]string{user.UserID}, transfer.GamePush, transfer.GameplayHandUpdate, data)
}

// broadcastRoundEnd 广播回合结算，亮出所有剩牌
func (eg *DominicanDomino) broadcastRoundEnd(round *RoundResult) {
	hands := make([][]Tile, eg.NumPlayers)
	for seatIndex := 0; seatIndex < eg.NumPlayers; seatIndex++ {
		hands[seatIndex] = eg.Match.Hand(seatIndex)
	}
	dto := RoundEndDTO{
		Result:   *round,
		Hands:    hands,
		Specials: eg.Match.SpecialScores(),
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastRoundEnd: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayRoundEnd, data)
	log.Info("broadcastRoundEnd: 回合 %d 结束, endType=%s", eg.Match.RoundNumber(), round.EndType)
}

// broadcastGameEnd 广播整局结束
func (eg *DominicanDomino) broadcastGameEnd(round *RoundResult) {
	dto := GameEndDTO{
		Winner:      round.MatchWinner,
		Scores:      round.Scores,
		RoundsTotal: eg.Match.RoundNumber(),
		TeamMode:    string(eg.TeamMode),
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastGameEnd: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayGameEnd, data)
}

// pushSnapshot 重连时下发该玩家可见的全量快照
func (eg *DominicanDomino) pushSnapshot(seatIndex int) {
	user := eg.Seats[seatIndex]
	if user == nil || user.IsBot {
		return
	}
	left, right := eg.Match.Ends()
	presence := make([]bool, eg.NumPlayers)
	for i, seatUser := range eg.Seats {
		presence[i] = seatUser != nil && seatUser.IsOnline
	}

	dto := SnapshotDTO{
		RoomID:      eg.RoomID,
		RoundNumber: eg.Match.RoundNumber(),
		TableTiles:  eg.Match.TableTiles(),
		LeftEnd:     left,
		RightEnd:    right,
		HandTiles:   eg.Match.Hand(seatIndex),
		HandCounts:  eg.Match.HandCounts(),
		Scores:      eg.Match.Scores(),
		TargetScore: eg.Match.TargetScore,
		CurrentTurn: eg.TurnManager.GetCurrentPlayer(),
		Specials:    eg.Match.SpecialScores(),
		Presence:    presence,
		TeamMode:    string(eg.TeamMode),
	}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("pushSnapshot: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush([]string{user.UserID}, transfer.GamePush, transfer.GameplayStateUpdate, data)
	log.Info("pushSnapshot: 推送快照给座位 %d", seatIndex)
}

// broadcastPresence 广播座位在线状态变化
func (eg *DominicanDomino) broadcastPresence(seatIndex int, online bool) {
	dto := PresenceDTO{SeatIndex: seatIndex, IsOnline: online}
	data, err := json.Marshal(&dto)
	if err != nil {
		log.Error("broadcastPresence: 序列化失败: %v", err)
		return
	}
	eg.dispatchPush(eg.allUserIDs(), transfer.GamePush, transfer.GameplayStateUpdate, data)
}

// pushError 非法操作提示（仅操作者可见）
func (eg *DominicanDomino) pushError(seatIndex int, opErr error) {
	user := eg.Seats[seatIndex]
	if user == nil || user.IsBot {
		return
	}
	dto := ErrorDTO{Message: opErr.Error()}
	data, err := json.Marshal(&dto)
	if err != nil {
		return
	}
	eg.dispatchPush([]string{user.UserID}, transfer.GamePush, transfer.GameplayError, data)
}

// allUserIDs 房间内所有人类玩家 ID
func (eg *DominicanDomino) allUserIDs() []string {
	userIDs := make([]string, 0, eg.NumPlayers)
	for _, user := range eg.Seats {
		if user == nil || user.IsBot {
			continue
		}
		userIDs = append(userIDs, user.UserID)
	}
	return userIDs
}

// dispatchPush 聚合推送消息（按 connector 分组）
func (eg *DominicanDomino) dispatchPush(users []string, connectorRoute, clientRoute string, data []byte) {
	if len(users) == 0 {
		return
	}
	if eg.Worker == nil {
		return
	}

	connectorGroups := make(map[string][]string) // connectorNodeID -> []userID
	for _, userID := range users {
		if userID == "" {
			continue
		}
		// 从 UserMap 获取 connector 信息（无需加锁，因为 UserMap 在 actor 线程中）
		userInfo, exists := eg.UserMap[userID]
		if !exists {
			log.Warn("dispatchPush: 用户 %s 不在 UserMap 中", userID)
			continue
		}
		if userInfo.IsBot || !userInfo.IsOnline {
			continue
		}
		connectorNodeID := userInfo.ConnectorNodeID
		if connectorNodeID == "" {
			log.Warn("dispatchPush: 用户 %s 没有 connector 信息", userID)
			continue
		}
		connectorGroups[connectorNodeID] = append(connectorGroups[connectorNodeID], userID)
	}

	for connectorNodeID, userIDs := range connectorGroups {
		err := eg.Worker.PushConnector(connectorNodeID, userIDs, connectorRoute, clientRoute, data)
		if err != nil {
			log.Warn("dispatchPush: 推送给 connector %s 失败: %v, users: %v", connectorNodeID, err, userIDs)
			continue
		}
	}
}

// ==================== 推送数据结构 ====================

// RoundStartDTO 回合开始信息
type RoundStartDTO struct {
	RoundNumber int    `json:"roundNumber"`
	OpenerSeat  int    `json:"openerSeat"`  // 首家座位
	CurrentTurn int    `json:"currentTurn"` // 当前轮到的座位
	HandTiles   []Tile `json:"handTiles"`   // 自己的手牌（仅自己可见）
	HandCounts  []int  `json:"handCounts"`  // 各座位手牌数
	Scores      []int  `json:"scores"`      // 累计分
	TargetScore int    `json:"targetScore"`
	TeamMode    string `json:"teamMode"`
}

// TurnDTO 轮到谁出牌
type TurnDTO struct {
	SeatIndex int `json:"seatIndex"`
	TimeLimit int `json:"timeLimit"` // 本回合可用时间（秒）
}

// PlaceDTO 出牌广播
type PlaceDTO struct {
	SeatIndex  int    `json:"seatIndex"`
	Tile       Tile   `json:"tile"`
	Side       string `json:"side"` // 实际放置方向
	NextSeat   int    `json:"nextSeat"`
	HandCounts []int  `json:"handCounts"`
	LeftEnd    int    `json:"leftEnd"`
	RightEnd   int    `json:"rightEnd"`
}

// PassDTO 过牌广播
type PassDTO struct {
	SeatIndex int  `json:"seatIndex"`
	NextSeat  int  `json:"nextSeat"`
	Blocked   bool `json:"blocked"` // 是否锁局
}

// SpecialScoreDTO 特殊得分广播
type SpecialScoreDTO struct {
	Special SpecialScore `json:"special"`
	Scores  []int        `json:"scores"`
}

// HandUpdateDTO 私有手牌更新
type HandUpdateDTO struct {
	HandTiles []Tile `json:"handTiles"`
}

// RoundEndDTO 回合结算广播，亮出所有剩牌
type RoundEndDTO struct {
	Result   RoundResult    `json:"result"`
	Hands    [][]Tile       `json:"hands"`
	Specials []SpecialScore `json:"specials"`
}

// GameEndDTO 整局结束广播
type GameEndDTO struct {
	Winner      int    `json:"winner"` // 搭档模式为队伍编号，单人模式为座位
	Scores      []int  `json:"scores"`
	RoundsTotal int    `json:"roundsTotal"`
	TeamMode    string `json:"teamMode"`
}

// SnapshotDTO 重连快照（该玩家可见的全量状态）
type SnapshotDTO struct {
	RoomID      string         `json:"roomID"`
	RoundNumber int            `json:"roundNumber"`
	TableTiles  []PlacedTile   `json:"tableTiles"`
	LeftEnd     int            `json:"leftEnd"`
	RightEnd    int            `json:"rightEnd"`
	HandTiles   []Tile         `json:"handTiles"` // 自己的手牌
	HandCounts  []int          `json:"handCounts"`
	Scores      []int          `json:"scores"`
	TargetScore int            `json:"targetScore"`
	CurrentTurn int            `json:"currentTurn"`
	Specials    []SpecialScore `json:"specials"`
	Presence    []bool         `json:"presence"` // 各座位是否在线
	TeamMode    string         `json:"teamMode"`
}

// PresenceDTO 座位在线状态变化
type PresenceDTO struct {
	SeatIndex int  `json:"seatIndex"`
	IsOnline  bool `json:"isOnline"`
}

// ErrorDTO 非法操作提示
type ErrorDTO struct {
	Message string `json:"message"`
}
