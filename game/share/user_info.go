package share

// UserInfo 和游戏逻辑隔离的玩家信息
type UserInfo struct {
	UserID          string // 用户 ID
	ConnectorNodeID string // connector 的 topic（用于主动推送消息）
	IsOnline        bool   // 是否在线
	SeatIndex       int
	Nickname        string
	IsBot           bool   // 机器人座位没有 connector
	BotDifficulty   string // easy / medium / hard，仅机器人有效
}

// NewUserInfo 创建玩家信息
func NewUserInfo(userID, connectorNodeID string) *UserInfo {
	return &UserInfo{
		UserID:          userID,
		ConnectorNodeID: connectorNodeID,
		IsOnline:        true,
	}
}

// NewBotInfo 创建机器人座位信息
func NewBotInfo(userID, nickname, difficulty string) *UserInfo {
	return &UserInfo{
		UserID:        userID,
		IsOnline:      true,
		Nickname:      nickname,
		IsBot:         true,
		BotDifficulty: difficulty,
	}
}

// SetOffline 设置玩家离线
func (pi *UserInfo) SetOffline() {
	pi.IsOnline = false
}

// SetOnline 设置玩家在线
func (pi *UserInfo) SetOnline(connectorNodeID string) {
	pi.IsOnline = true
	pi.ConnectorNodeID = connectorNodeID
}
