package conn

import (
	"encoding/json"
	"fmt"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/protocol"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
)

// handlePush 处理来自 game/march 节点的消息
// Push 是服务端主动推送，Response 是客户端请求的回包，都按 PushUser 路由回连接
func (w *Worker) handlePush(users []string, body *protocol.Message, route string) {
	switch route {
	case transfer.MatchingSuccess:
		w.handleMatchSuccessPush(users, body)
	default:
		w.handleForwardPush(users, body, route)
	}
}

// handleMatchSuccessPush 匹配成功，先落地路由缓存再转发给玩家
func (w *Worker) handleMatchSuccessPush(users []string, body *protocol.Message) {
	var msg transfer.MatchSuccessDTO
	if err := json.Unmarshal(body.Data, &msg); err != nil {
		log.Error(fmt.Sprintf("connector 解析匹配成功消息失败: %v", err))
		return
	}

	for _, userID := range msg.Players {
		w.GameRouteCache.Set(userID, msg.GameNodeID)
		if connAny, ok := w.connMap.Load(userID); ok {
			if conn, ok := connAny.(Connection); ok {
				conn.TakeSession().SetGamingTopic(msg.GameNodeID)
			}
		}
		log.Info(fmt.Sprintf("connector 保存用户路由: %s -> %s", userID, msg.GameNodeID))
	}

	var failedUsers []error
	for _, userID := range users {
		if err := w.send(protocol.Push, userID, transfer.MatchingSuccess, body.Data); err != nil {
			failedUsers = append(failedUsers, err)
		}
	}
	if len(failedUsers) > 0 {
		log.Warn(fmt.Sprintf("connector handleMatchSuccessPush 发送失败的用户: %v", failedUsers))
	}
}

// handleForwardPush 原样转发给目标玩家，保留消息 ID 供客户端配对请求
func (w *Worker) handleForwardPush(users []string, body *protocol.Message, route string) {
	if len(users) == 0 {
		log.Warn(fmt.Sprintf("connector handlePush 没有推送目标: route=%s", route))
		return
	}

	buf, err := protocol.MessageEncode(body)
	if err != nil {
		log.Error("connector 推送编码错误, err:%#v", err)
		return
	}
	res, err := protocol.Wrap(protocol.Data, buf)
	if err != nil {
		log.Error("connector 推送打包错误, err:%#v", err)
		return
	}

	for _, userID := range users {
		if userID == "" {
			continue
		}
		if err := w.sendRaw(userID, res); err != nil {
			log.Warn("connector 推送失败 userID=%s route=%s err=%v", userID, route, err)
		}
	}
}
