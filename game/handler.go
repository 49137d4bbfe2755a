package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	svc "github.com/curetcore/dominodominicano/game/application/service"
	"github.com/curetcore/dominodominicano/game/share"
	"github.com/google/uuid"
)

// connector 转发客户端消息时，会把 userID 和自身 topic 注入到消息体里

type joinRoomReq struct {
	UserID         string `json:"userID"`
	ConnectorTopic string `json:"connectorTopic"`
	RoomID         string `json:"roomID"`
}

type leaveRoomReq struct {
	UserID string `json:"userID"`
}

type readyReq struct {
	UserID string `json:"userID"`
	Ready  bool   `json:"ready"`
}

type addBotReq struct {
	UserID     string `json:"userID"`
	Difficulty string `json:"difficulty"` // easy / medium / hard
}

type chatReq struct {
	UserID   string `json:"userID"`
	Content  string `json:"content"`
	PhraseID int    `json:"phraseID"` // 快捷短语编号，0 表示自由文本
}

// RoomOpResp 房间操作的通用应答
type RoomOpResp struct {
	Success   bool   `json:"success"`
	RoomID    string `json:"roomID,omitempty"`
	SeatIndex int    `json:"seatIndex,omitempty"`
	Message   string `json:"message,omitempty"`
}

// RoomUpdateDTO 房间状态推送
type RoomUpdateDTO struct {
	RoomID     string       `json:"roomID"`
	Mode       string       `json:"mode"`
	Status     int          `json:"status"`
	HostID     string       `json:"hostID"`
	MaxPlayers int          `json:"maxPlayers"`
	Members    []MemberView `json:"members"`
}

// ChatPushDTO 聊天广播
type ChatPushDTO struct {
	UserID    string `json:"userID"`
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
	PhraseID  int    `json:"phraseID,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// 快捷短语表，客户端按编号发送
var quickPhrases = map[int]string{
	1: "¡Capicúa!",
	2: "¡Agua!",
	3: "Dale que vamo'",
	4: "¡Tranque!",
	5: "¡Buena esa!",
	6: "Piénsalo bien...",
	7: "¡Me pegué!",
	8: "Esa ficha ta' quemá",
}

// handleCreateRoom 建房
// march 节点带 players 列表请求时直接开局；玩家自己建房时创建开放房间等人
func (w *Worker) handleCreateRoom(message []byte) any {
	var req struct {
		Players        map[string]string `json:"players"`
		Mode           string            `json:"mode"`
		UserID         string            `json:"userID"`
		ConnectorTopic string            `json:"connectorTopic"`
	}
	if err := json.Unmarshal(message, &req); err != nil {
		return &svc.CreateRoomResp{Success: false, Message: "请求解析失败"}
	}

	if len(req.Players) > 0 {
		resp, err := w.GameService.CreateRoom(context.Background(), &svc.CreateRoomReq{
			Players: req.Players,
			Mode:    req.Mode,
		})
		if err != nil {
			log.Error("Game Worker 匹配建房失败: %v", err)
			return &svc.CreateRoomResp{Success: false, Message: err.Error()}
		}
		return resp
	}

	room, err := w.RoomManager.CreateOpenRoom(req.Mode, req.UserID, req.ConnectorTopic)
	if err != nil {
		return &svc.CreateRoomResp{Success: false, Message: err.Error()}
	}
	w.pushRoomUpdate(room)
	return &svc.CreateRoomResp{Success: true, RoomID: room.ID, Message: "房间创建成功"}
}

// handleRoomJoin 加入开放房间
func (w *Worker) handleRoomJoin(message []byte) any {
	var req joinRoomReq
	if err := json.Unmarshal(message, &req); err != nil {
		return &RoomOpResp{Success: false, Message: "请求解析失败"}
	}

	room, seat, err := w.RoomManager.JoinRoom(req.RoomID, req.UserID, req.ConnectorTopic)
	if err != nil {
		return &RoomOpResp{Success: false, Message: err.Error()}
	}

	w.pushRoomUpdate(room)
	return &RoomOpResp{Success: true, RoomID: room.ID, SeatIndex: seat}
}

// handleRoomLeave 离开房间
func (w *Worker) handleRoomLeave(message []byte) any {
	var req leaveRoomReq
	if err := json.Unmarshal(message, &req); err != nil {
		return &RoomOpResp{Success: false, Message: "请求解析失败"}
	}

	room, exists := w.RoomManager.GetPlayerRoom(req.UserID)
	if !exists {
		return &RoomOpResp{Success: false, Message: transfer.ErrNotInRoom.Error()}
	}

	// 对局中退出交给引擎，座位由机器人接管或整局中止
	if room.GetStatus() == RoomStatusPlaying && room.Engine != nil {
		room.Engine.NotifyEvent(&share.LeaveGameEvent{
			GameMessageEvent: share.GameMessageEvent{UserID: req.UserID},
		})
		return &RoomOpResp{Success: true, RoomID: room.ID}
	}

	remaining, err := w.RoomManager.LeaveRoom(room.ID, req.UserID)
	if err != nil {
		return &RoomOpResp{Success: false, Message: err.Error()}
	}
	if remaining != nil {
		w.pushRoomUpdate(remaining)
	}
	return &RoomOpResp{Success: true}
}

// handleRoomReady 玩家准备，满员且全员准备后自动开局
func (w *Worker) handleRoomReady(message []byte) any {
	var req readyReq
	if err := json.Unmarshal(message, &req); err != nil {
		return &RoomOpResp{Success: false, Message: "请求解析失败"}
	}

	room, exists := w.RoomManager.GetPlayerRoom(req.UserID)
	if !exists {
		return &RoomOpResp{Success: false, Message: transfer.ErrNotInRoom.Error()}
	}
	if err := room.SetReady(req.UserID, req.Ready); err != nil {
		return &RoomOpResp{Success: false, Message: err.Error()}
	}

	w.pushRoomUpdate(room)
	w.tryStartRoom(room)
	return &RoomOpResp{Success: true, RoomID: room.ID}
}

// handleRoomAddBot 房主往空位加机器人
func (w *Worker) handleRoomAddBot(message []byte) any {
	var req addBotReq
	if err := json.Unmarshal(message, &req); err != nil {
		return &RoomOpResp{Success: false, Message: "请求解析失败"}
	}

	room, exists := w.RoomManager.GetPlayerRoom(req.UserID)
	if !exists {
		return &RoomOpResp{Success: false, Message: transfer.ErrNotInRoom.Error()}
	}
	if room.HostID != req.UserID {
		return &RoomOpResp{Success: false, Message: transfer.ErrNotHost.Error()}
	}

	botID := "bot_" + uuid.New().String()[:8]
	seat, err := room.AddBot(botID, share.BotName(), req.Difficulty)
	if err != nil {
		return &RoomOpResp{Success: false, Message: err.Error()}
	}

	w.pushRoomUpdate(room)
	w.tryStartRoom(room)
	return &RoomOpResp{Success: true, RoomID: room.ID, SeatIndex: seat}
}

// handleRoomChat 聊天和快捷短语广播
func (w *Worker) handleRoomChat(message []byte) any {
	var req chatReq
	if err := json.Unmarshal(message, &req); err != nil {
		return nil
	}

	room, exists := w.RoomManager.GetPlayerRoom(req.UserID)
	if !exists {
		return nil
	}

	content := req.Content
	if req.PhraseID != 0 {
		phrase, ok := quickPhrases[req.PhraseID]
		if !ok {
			return nil
		}
		content = phrase
	}
	if content == "" {
		return nil
	}

	nickname := req.UserID
	if player, ok := room.GetPlayer(req.UserID); ok && player.Nickname != "" {
		nickname = player.Nickname
	}

	dto := &ChatPushDTO{
		UserID:    req.UserID,
		Nickname:  nickname,
		Content:   content,
		PhraseID:  req.PhraseID,
		Timestamp: time.Now().UnixMilli(),
	}
	w.broadcastRoom(room, transfer.RoomChatPush, dto)
	return nil
}

// handleRoomPhrase 快捷短语，只认编号不走自由文本
func (w *Worker) handleRoomPhrase(message []byte) any {
	var req chatReq
	if err := json.Unmarshal(message, &req); err != nil {
		return nil
	}
	if req.PhraseID == 0 {
		return nil
	}
	req.Content = ""

	forwarded, err := json.Marshal(&req)
	if err != nil {
		return nil
	}
	return w.handleRoomChat(forwarded)
}

// handlePlaceTile 出牌，导航到对应房间的引擎
func (w *Worker) handlePlaceTile(message []byte) any {
	var event share.PlaceTileEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Warn("Game Worker 出牌消息解析失败: %v", err)
		return nil
	}
	w.notifyEngine(event.UserID, &event)
	return nil
}

// handlePassTurn 过牌
func (w *Worker) handlePassTurn(message []byte) any {
	var event share.PassTurnEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Warn("Game Worker 过牌消息解析失败: %v", err)
		return nil
	}
	w.notifyEngine(event.UserID, &event)
	return nil
}

// handleReconnect 断线重连，更新路由后由引擎下发快照
func (w *Worker) handleReconnect(message []byte) any {
	var event share.ReconnectEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return &RoomOpResp{Success: false, Message: "请求解析失败"}
	}

	room, exists := w.RoomManager.GetPlayerRoom(event.UserID)
	if !exists {
		return &RoomOpResp{Success: false, Message: transfer.ErrRoomNotFound.Error()}
	}

	if err := w.RoomManager.UpdatePlayerConnector(event.UserID, event.ConnectorTopic); err != nil {
		log.Warn("Game Worker 更新玩家路由失败: %v", err)
	}

	if room.GetStatus() == RoomStatusPlaying && room.Engine != nil {
		room.Engine.NotifyEvent(&event)
	} else {
		w.pushRoomUpdate(room)
	}
	return &RoomOpResp{Success: true, RoomID: room.ID}
}

// handleDisconnect connector 通知玩家掉线，对局中座位转为机器人托管
func (w *Worker) handleDisconnect(message []byte) any {
	var event share.DisconnectEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil
	}
	w.notifyEngine(event.UserID, &event)
	return nil
}

func (w *Worker) notifyEngine(userID string, event share.GameEvent) {
	room, exists := w.RoomManager.GetPlayerRoom(userID)
	if !exists {
		log.Warn("Game Worker 玩家 %s 不在任何房间中, 事件: %s", userID, event.GetEventType())
		return
	}
	if room.Engine == nil {
		log.Warn("Game Worker 房间 %s 尚未开局, 事件: %s", room.ID, event.GetEventType())
		return
	}
	room.Engine.NotifyEvent(event)
}

// tryStartRoom 满员且全员准备时开局
func (w *Worker) tryStartRoom(room *Room) {
	if !room.CanStart() {
		return
	}
	if _, err := w.RoomManager.StartRoom(room.ID); err != nil {
		log.Error("Game Worker 开局失败, roomID=%s: %v", room.ID, err)
	}
}

// pushRoomUpdate 向房间内全部在线玩家推送房间状态
func (w *Worker) pushRoomUpdate(room *Room) {
	dto := &RoomUpdateDTO{
		RoomID:     room.ID,
		Mode:       room.Mode,
		Status:     int(room.GetStatus()),
		HostID:     room.HostID,
		MaxPlayers: room.MaxPlayers(),
		Members:    room.Members(),
	}
	w.broadcastRoom(room, transfer.RoomUpdate, dto)
}

func (w *Worker) broadcastRoom(room *Room, route string, dto any) {
	data, err := json.Marshal(dto)
	if err != nil {
		log.Error("Game Worker 推送数据序列化失败: %v", err)
		return
	}
	for connectorTopic, users := range room.ConnectorTopics() {
		if err := w.PushConnector(connectorTopic, users, transfer.GamePush, route, data); err != nil {
			log.Warn(fmt.Sprintf("Game Worker 推送 %s 到 connector %s 失败: %v", route, connectorTopic, err))
		}
	}
}
