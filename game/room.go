package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	"github.com/curetcore/dominodominicano/game/engines"
	"github.com/curetcore/dominodominicano/game/share"
)

// RoomStatus 房间状态
type RoomStatus int

const (
	RoomStatusWaiting  RoomStatus = iota // 等待中
	RoomStatusPlaying                    // 游戏中
	RoomStatusFinished                   // 已结束
)

// Room 游戏房间
// 既承载匹配直达的对局，也承载客户端自建的等待房
type Room struct {
	ID         string                     // 房间 ID
	Users      map[string]*share.UserInfo // userID -> UserInfo（和 Engine 共享）
	Engine     engines.Engine             // 开局前为 nil
	EngineType engines.EngineType
	Mode       string     // 见 config.ModePairs4 等
	Status     RoomStatus // 房间状态
	HostID     string     // 房主（自建房有效，房主离开时移交）
	ready      map[string]bool
	maxPlayers int
	CreatedAt  time.Time
	mu         sync.RWMutex
}

// GenerateRoomID 生成房间 ID
// 格式：room_<timestamp>_<random>
func GenerateRoomID() string {
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	randomStr := hex.EncodeToString(randomBytes)
	return fmt.Sprintf("room_%d_%s", timestamp, randomStr)
}

// seatsForMode 模式对应的座位数
func seatsForMode(mode string) int {
	if config.MatchMode(mode) == config.ModeIndividual2 {
		return 2
	}
	return 4
}

// engineTypeForMode 模式对应的引擎类型
func engineTypeForMode(mode string) (engines.EngineType, error) {
	switch config.MatchMode(mode) {
	case config.ModePairs4:
		return engines.DOMINICAN_PAIRS_4P_ENGINE, nil
	case config.ModeIndividual4:
		return engines.DOMINICAN_INDIVIDUAL_4P_ENGINE, nil
	case config.ModeIndividual2:
		return engines.DOMINICAN_INDIVIDUAL_2P_ENGINE, nil
	default:
		return 0, transfer.ErrSeatUnsupported
	}
}

// NewRoom 创建等待房（自建房路径，开局前没有引擎）
func NewRoom(mode, hostID string) (*Room, error) {
	engineType, err := engineTypeForMode(mode)
	if err != nil {
		return nil, err
	}
	return &Room{
		ID:         GenerateRoomID(),
		Users:      make(map[string]*share.UserInfo),
		EngineType: engineType,
		Mode:       mode,
		Status:     RoomStatusWaiting,
		HostID:     hostID,
		ready:      make(map[string]bool),
		maxPlayers: seatsForMode(mode),
		CreatedAt:  time.Now(),
	}, nil
}

// AddPlayer 添加玩家到房间，返回分配的座位索引
func (r *Room) AddPlayer(userID, connectorTopic string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Users) >= r.maxPlayers {
		return -1, transfer.ErrRoomFull
	}
	if _, exists := r.Users[userID]; exists {
		return -1, transfer.ErrAlreadyInRoom
	}
	if r.Status != RoomStatusWaiting {
		return -1, transfer.ErrGameInProgress
	}

	seatIndex := r.findAvailableSeat()
	if seatIndex < 0 {
		return -1, transfer.ErrRoomFull
	}

	user := share.NewUserInfo(userID, connectorTopic)
	user.SeatIndex = seatIndex
	r.Users[userID] = user

	log.Info("Room[%s] 玩家 %s 加入房间，座位: %d", r.ID, userID, seatIndex)
	return seatIndex, nil
}

// AddBot 房主添加一个机器人占座
func (r *Room) AddBot(botID, nickname, difficulty string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Users) >= r.maxPlayers {
		return -1, transfer.ErrRoomFull
	}
	if r.Status != RoomStatusWaiting {
		return -1, transfer.ErrGameInProgress
	}

	seatIndex := r.findAvailableSeat()
	if seatIndex < 0 {
		return -1, transfer.ErrRoomFull
	}

	bot := share.NewBotInfo(botID, nickname, difficulty)
	bot.SeatIndex = seatIndex
	r.Users[botID] = bot
	r.ready[botID] = true // 机器人永远就绪

	log.Info("Room[%s] 机器人 %s(%s) 入座: %d", r.ID, nickname, difficulty, seatIndex)
	return seatIndex, nil
}

// RemovePlayer 从房间移除玩家，房主离开时把房主移交给最早入座的真人
func (r *Room) RemovePlayer(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Users[userID]; !exists {
		return transfer.ErrNotInRoom
	}

	delete(r.Users, userID)
	delete(r.ready, userID)

	if r.HostID == userID {
		r.HostID = ""
		nextSeat := r.maxPlayers
		for id, u := range r.Users {
			if !u.IsBot && u.SeatIndex < nextSeat {
				nextSeat = u.SeatIndex
				r.HostID = id
			}
		}
	}

	log.Info("Room[%s] 玩家 %s 离开房间", r.ID, userID)
	return nil
}

// SetReady 设置玩家的准备状态
func (r *Room) SetReady(userID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Users[userID]; !exists {
		return transfer.ErrNotInRoom
	}
	r.ready[userID] = ready
	return nil
}

// CanStart 座位坐满且所有人都已准备
func (r *Room) CanStart() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Status != RoomStatusWaiting || len(r.Users) != r.maxPlayers {
		return false
	}
	for userID := range r.Users {
		if !r.ready[userID] {
			return false
		}
	}
	return true
}

// GetPlayer 获取玩家信息
func (r *Room) GetPlayer(userID string) (*share.UserInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.Users[userID]
	return user, exists
}

// GetPlayerCount 获取玩家数量
func (r *Room) GetPlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Users)
}

// MaxPlayers 该房间模式下的座位数
func (r *Room) MaxPlayers() int {
	return r.maxPlayers
}

// IsFull 检查房间是否已满
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Users) >= r.maxPlayers
}

// UpdateStatus 更新房间状态
func (r *Room) UpdateStatus(status RoomStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldStatus := r.Status
	r.Status = status
	log.Info("Room[%s] 状态更新: %v -> %v", r.ID, oldStatus, status)
}

// GetStatus 获取房间状态
func (r *Room) GetStatus() RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Status
}

// MemberView 房间成员视图（用于 room.update 推送）
type MemberView struct {
	UserID    string `json:"userID"`
	SeatIndex int    `json:"seatIndex"`
	Nickname  string `json:"nickname,omitempty"`
	IsBot     bool   `json:"isBot"`
	IsOnline  bool   `json:"isOnline"`
	Ready     bool   `json:"ready"`
	IsHost    bool   `json:"isHost"`
}

// Members 按座位顺序返回成员视图
func (r *Room) Members() []MemberView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]MemberView, 0, len(r.Users))
	for userID, u := range r.Users {
		members = append(members, MemberView{
			UserID:    userID,
			SeatIndex: u.SeatIndex,
			Nickname:  u.Nickname,
			IsBot:     u.IsBot,
			IsOnline:  u.IsOnline,
			Ready:     r.ready[userID],
			IsHost:    userID == r.HostID,
		})
	}
	for i := 0; i < len(members)-1; i++ {
		for j := i + 1; j < len(members); j++ {
			if members[i].SeatIndex > members[j].SeatIndex {
				members[i], members[j] = members[j], members[i]
			}
		}
	}
	return members
}

// ConnectorTopics 收集所有真人玩家的 connector topic 集合
func (r *Room) ConnectorTopics() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make(map[string][]string)
	for userID, u := range r.Users {
		if u.IsBot || u.ConnectorNodeID == "" {
			continue
		}
		groups[u.ConnectorNodeID] = append(groups[u.ConnectorNodeID], userID)
	}
	return groups
}

// findAvailableSeat 查找第一个空座位，没有则返回 -1
func (r *Room) findAvailableSeat() int {
	occupiedSeats := make(map[int]bool)
	for _, u := range r.Users {
		occupiedSeats[u.SeatIndex] = true
	}
	for i := 0; i < r.maxPlayers; i++ {
		if !occupiedSeats[i] {
			return i
		}
	}
	return -1
}

// Close 关闭房间，释放引擎资源
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Engine != nil {
		r.Engine.Close()
		r.Engine = nil
	}
	r.Status = RoomStatusFinished
}
