package game

import (
	"fmt"
	"sync"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	"github.com/curetcore/dominodominicano/game/engines"
)

// RoomManager 房间管理器
// 管理所有游戏房间实例，使用原型模式管理 Engine
type RoomManager struct {
	rooms            map[string]*Room                      // roomID -> Room
	playerRoom       map[string]string                     // playerID -> roomID
	enginePrototypes map[engines.EngineType]engines.Engine // engineType -> Engine 原型
	mu               sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:            make(map[string]*Room),
		playerRoom:       make(map[string]string),
		enginePrototypes: make(map[engines.EngineType]engines.Engine),
	}
}

// SetEnginePrototype 注入 Engine 原型
// 在 GameContainer 初始化时调用
func (rm *RoomManager) SetEnginePrototype(engineType engines.EngineType, engine engines.Engine) error {
	if engine == nil {
		return fmt.Errorf("Engine 原型不能为空")
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.enginePrototypes[engineType] = engine
	log.Info("RoomManager 注入 Engine 原型: engineType=%d", engineType)
	return nil
}

// CreateMatchedRoom 匹配成功直接开局（march 节点调用）
// users: userID -> connectorTopic，座位按遍历顺序分配
func (rm *RoomManager) CreateMatchedRoom(users map[string]string, mode string) (*Room, error) {
	room, err := NewRoom(mode, "")
	if err != nil {
		return nil, err
	}
	if len(users) != room.MaxPlayers() {
		return nil, fmt.Errorf("玩家数量 %d 与模式 %s 不符", len(users), mode)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	for userID := range users {
		if roomID, exists := rm.playerRoom[userID]; exists {
			log.Warn("玩家 %s 已在房间 %s 中", userID, roomID)
		}
	}

	for userID, connectorTopic := range users {
		if _, err := room.AddPlayer(userID, connectorTopic); err != nil {
			return nil, fmt.Errorf("玩家 %s 入座失败: %v", userID, err)
		}
	}

	if err := rm.startRoomLocked(room); err != nil {
		return nil, err
	}

	log.Info("RoomManager 创建匹配房间 %s，模式: %s，玩家数: %d", room.ID, mode, len(users))
	return room, nil
}

// CreateOpenRoom 创建自建等待房，房主先入座
func (rm *RoomManager) CreateOpenRoom(mode, hostID, connectorTopic string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if roomID, exists := rm.playerRoom[hostID]; exists {
		log.Warn("玩家 %s 已在房间 %s 中", hostID, roomID)
		return nil, transfer.ErrAlreadyInRoom
	}

	room, err := NewRoom(mode, hostID)
	if err != nil {
		return nil, err
	}
	if _, err := room.AddPlayer(hostID, connectorTopic); err != nil {
		return nil, err
	}

	rm.rooms[room.ID] = room
	rm.playerRoom[hostID] = room.ID

	log.Info("RoomManager 创建自建房间 %s，房主: %s，模式: %s", room.ID, hostID, mode)
	return room, nil
}

// JoinRoom 玩家加入等待房
func (rm *RoomManager) JoinRoom(roomID, userID, connectorTopic string) (*Room, int, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if existing, exists := rm.playerRoom[userID]; exists && existing != roomID {
		return nil, -1, transfer.ErrAlreadyInRoom
	}

	room, exists := rm.rooms[roomID]
	if !exists {
		return nil, -1, transfer.ErrRoomNotFound
	}

	seatIndex, err := room.AddPlayer(userID, connectorTopic)
	if err != nil {
		return nil, -1, err
	}
	rm.playerRoom[userID] = roomID

	return room, seatIndex, nil
}

// LeaveRoom 玩家离开等待房，空房自动销毁
func (rm *RoomManager) LeaveRoom(roomID, userID string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[roomID]
	if !exists {
		return nil, transfer.ErrRoomNotFound
	}
	if room.GetStatus() != RoomStatusWaiting {
		return nil, transfer.ErrGameInProgress
	}

	if err := room.RemovePlayer(userID); err != nil {
		return nil, err
	}
	delete(rm.playerRoom, userID)

	humanLeft := false
	for _, member := range room.Members() {
		if !member.IsBot {
			humanLeft = true
			break
		}
	}
	if !humanLeft {
		rm.cleanupRoom(roomID)
		return nil, nil
	}
	return room, nil
}

// StartRoom 开局：克隆引擎并初始化（等待房坐满且全员准备后调用）
func (rm *RoomManager) StartRoom(roomID string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[roomID]
	if !exists {
		return nil, transfer.ErrRoomNotFound
	}
	if !room.CanStart() {
		return nil, transfer.ErrNotEnoughSeats
	}
	if err := rm.initEngineLocked(room); err != nil {
		return nil, err
	}
	return room, nil
}

// startRoomLocked 注册房间路由并初始化引擎（匹配路径，调用方持有锁）
func (rm *RoomManager) startRoomLocked(room *Room) error {
	for userID := range room.Users {
		rm.playerRoom[userID] = room.ID
	}
	rm.rooms[room.ID] = room
	if err := rm.initEngineLocked(room); err != nil {
		rm.cleanupRoom(room.ID)
		return err
	}
	return nil
}

func (rm *RoomManager) initEngineLocked(room *Room) error {
	prototype, exists := rm.enginePrototypes[room.EngineType]
	if !exists {
		return fmt.Errorf("不支持的引擎类型: %d", room.EngineType)
	}
	engine := prototype.Clone()
	if engine == nil {
		return fmt.Errorf("克隆游戏引擎失败: engineType=%d", room.EngineType)
	}

	room.Engine = engine
	room.UpdateStatus(RoomStatusPlaying)

	if err := engine.InitializeEngine(room.ID, room.Users); err != nil {
		return fmt.Errorf("初始化游戏引擎失败: %v", err)
	}
	return nil
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(roomID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[roomID]
	return room, exists
}

// GetPlayerRoom 获取玩家所在房间
func (rm *RoomManager) GetPlayerRoom(playerID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	roomID, exists := rm.playerRoom[playerID]
	if !exists {
		return nil, false
	}

	room, exists := rm.rooms[roomID]
	return room, exists
}

// DeleteRoom 删除房间
// 会清理房间内的所有玩家路由映射
func (rm *RoomManager) DeleteRoom(roomID string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.rooms[roomID]; !exists {
		return transfer.ErrRoomNotFound
	}
	rm.cleanupRoom(roomID)

	log.Info("RoomManager 删除房间 %s", roomID)
	return nil
}

// UpdatePlayerConnector 更新玩家的 connector topic（用于重连）
func (rm *RoomManager) UpdatePlayerConnector(userID, newConnectorTopic string) error {
	room, exists := rm.GetPlayerRoom(userID)
	if !exists {
		return fmt.Errorf("玩家 %s 不在任何房间中", userID)
	}

	player, exists := room.GetPlayer(userID)
	if !exists {
		return transfer.ErrNotInRoom
	}

	player.SetOnline(newConnectorTopic)
	log.Info("RoomManager 更新玩家 %s 的 connector topic: %s", userID, newConnectorTopic)
	return nil
}

// GetPlayerConnector 获取玩家的 connector topic
func (rm *RoomManager) GetPlayerConnector(userID string) (string, bool) {
	room, exists := rm.GetPlayerRoom(userID)
	if !exists {
		return "", false
	}

	player, exists := room.GetPlayer(userID)
	if !exists {
		return "", false
	}
	return player.ConnectorNodeID, true
}

// GetStats 获取统计信息（房间数、玩家数）
// 供 Monitor 使用
func (rm *RoomManager) GetStats() (gameCount int, playerCount int) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	gameCount = len(rm.rooms)
	playerCount = len(rm.playerRoom)
	return gameCount, playerCount
}

// GetAllRooms 获取所有房间列表（返回副本）
func (rm *RoomManager) GetAllRooms() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// cleanupRoom 清理房间（内部方法，需要在持有锁的情况下调用）
func (rm *RoomManager) cleanupRoom(roomID string) {
	room, exists := rm.rooms[roomID]
	if !exists {
		return
	}

	for _, member := range room.Members() {
		delete(rm.playerRoom, member.UserID)
	}
	room.Close()
	delete(rm.rooms, roomID)
}
