package transfer

import (
	"github.com/curetcore/dominodominicano/core/infrastructure/message/protocol"
)

type SessionData struct {
	SingleData map[string]any //只保存当前 connID
	AllData    map[string]any //所有 connID 都需要保存
}

// ServicePacket 用于服务节点之间通信，有两层路由
// Destination 是 nats subject（节点 id），Route 是节点内的处理器路由
type ServicePacket struct {
	Body        *protocol.Message
	Source      string
	Destination string
	Route       string
	SessionData *SessionData
	PushUser    []string
}

// MatchSuccessDTO march 节点匹配成功后广播给 connector 和 game 节点
type MatchSuccessDTO struct {
	RoomID     string   `json:"roomID"`
	GameNodeID string   `json:"gameNodeID"`
	Players    []string `json:"players"` // userID 列表，顺序即座位顺序
	Mode       string   `json:"mode"`    // dominican:pairs4 / dominican:individual4 / dominican:individual2
}

// JoinQueueDTO connector 转发玩家的匹配请求
type JoinQueueDTO struct {
	UserID         string `json:"userID"`
	Score          int    `json:"score"` // 匹配分，march 按分段撮合
	Mode           string `json:"mode"`
	ConnectorTopic string `json:"connectorTopic"`
}
