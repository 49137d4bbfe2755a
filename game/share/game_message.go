package share

// GameEvent 游戏事件接口
type GameEvent interface {
	GetUserID() string
	GetEventType() string
}

type GameMessageEvent struct {
	UserID string `json:"userID"` // 用户 ID（用于查找座位）
}

func (e *GameMessageEvent) GetUserID() string {
	return e.UserID
}

// PlaceTileEvent 出牌事件
// Side 为 "left"/"right"，留空由引擎选择（左优先）
type PlaceTileEvent struct {
	GameMessageEvent
	TileIndex int    `json:"tileIndex"`
	Side      string `json:"side"`
}

func (e *PlaceTileEvent) GetEventType() string {
	return "PlaceTile"
}

// PassTurnEvent 过牌事件
type PassTurnEvent struct {
	GameMessageEvent
}

func (e *PassTurnEvent) GetEventType() string {
	return "PassTurn"
}

// ReconnectEvent 断线重连事件，引擎下发全量快照
// ConnectorTopic 是玩家重连后所在 connector 的 topic
type ReconnectEvent struct {
	GameMessageEvent
	ConnectorTopic string `json:"connectorTopic"`
}

func (e *ReconnectEvent) GetEventType() string {
	return "Reconnect"
}

// DisconnectEvent 玩家掉线事件，座位由机器人接管
type DisconnectEvent struct {
	GameMessageEvent
}

func (e *DisconnectEvent) GetEventType() string {
	return "Disconnect"
}

// LeaveGameEvent 玩家中途退出，整局按中止处理或机器人接管
type LeaveGameEvent struct {
	GameMessageEvent
}

func (e *LeaveGameEvent) GetEventType() string {
	return "LeaveGame"
}
