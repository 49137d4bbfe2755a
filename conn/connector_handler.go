package conn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/protocol"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
)

func failMessage(tip string) map[string]any {
	return map[string]any{
		"success": false,
		"message": tip,
	}
}

func routerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

type queueReq struct {
	Mode string `json:"mode"`
}

// joinQueueHandler 玩家请求匹配
// 入队前先查路由，有进行中的对局就不让排，引导客户端走重连
func joinQueueHandler(session *Session, body []byte) (any, error) {
	userID := session.GetUserID()
	if userID == "" {
		return failMessage("用户ID未检测"), nil
	}
	w := session.worker

	var req queueReq
	if err := json.Unmarshal(body, &req); err != nil || req.Mode == "" {
		return failMessage("缺少匹配模式"), nil
	}

	if info, err := w.lookupRouter(userID); err == nil && info != nil {
		log.Info("用户 %s 有进行中的对局，拒绝入队: gameTopic=%s", userID, info.GameTopic)
		return failMessage("有进行中的对局，请先重连"), nil
	}

	dto := &transfer.JoinQueueDTO{
		UserID:         userID,
		Mode:           req.Mode,
		ConnectorTopic: w.nodeID,
	}
	if err := forwardToMarch(w, userID, transfer.JoinQueue, dto); err != nil {
		log.Error("JoinQueue 转发失败: userID=%s, err=%v", userID, err)
		return failMessage("加入匹配队列失败"), nil
	}

	log.Info("用户加入匹配队列: userID=%s, connectorID=%s, mode=%s", userID, w.nodeID, req.Mode)
	return map[string]any{"success": true, "message": "已提交匹配请求"}, nil
}

// cancelQueueHandler 玩家取消匹配
func cancelQueueHandler(session *Session, body []byte) (any, error) {
	userID := session.GetUserID()
	if userID == "" {
		return failMessage("用户ID未检测"), nil
	}
	w := session.worker

	var req queueReq
	if err := json.Unmarshal(body, &req); err != nil || req.Mode == "" {
		return failMessage("缺少匹配模式"), nil
	}

	dto := &transfer.JoinQueueDTO{
		UserID:         userID,
		Mode:           req.Mode,
		ConnectorTopic: w.nodeID,
	}
	if err := forwardToMarch(w, userID, transfer.CancelQueue, dto); err != nil {
		log.Error("CancelQueue 转发失败: userID=%s, err=%v", userID, err)
		return failMessage("取消匹配失败"), nil
	}

	return map[string]any{"success": true, "message": "已取消匹配"}, nil
}

// reconnectHandler 断线重连
// 查 redis 路由定位 game 节点，通知引擎后由引擎推送对局快照
func reconnectHandler(session *Session, body []byte) (any, error) {
	userID := session.GetUserID()
	if userID == "" {
		return failMessage("用户ID未检测"), nil
	}
	w := session.worker

	info, err := w.lookupRouter(userID)
	if err != nil || info == nil {
		return failMessage("没有进行中的对局"), nil
	}

	session.SetGamingTopic(info.GameTopic)
	w.GameRouteCache.Set(userID, info.GameTopic)

	data, _ := json.Marshal(map[string]any{
		"userID":         userID,
		"connectorTopic": w.nodeID,
	})
	packet := &transfer.ServicePacket{
		Source:      w.nodeID,
		Destination: info.GameTopic,
		Route:       transfer.GameReconnect,
		PushUser:    []string{userID},
		Body: &protocol.Message{
			Type:  protocol.Notify,
			Route: transfer.GameReconnect,
			Data:  data,
		},
	}
	if err := w.MiddleWorker.PushMessage(packet); err != nil {
		log.Error("Reconnect 转发失败: userID=%s, err=%v", userID, err)
		return failMessage("重连失败"), nil
	}

	log.Info("用户重连对局: userID=%s, gameTopic=%s, roomID=%s", userID, info.GameTopic, info.RoomID)
	return map[string]any{"success": true, "roomID": info.RoomID}, nil
}

func forwardToMarch(w *Worker, userID, route string, dto *transfer.JoinQueueDTO) error {
	if w.marchTopic == "" {
		return transfer.ErrNoAvailableInstance
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	packet := &transfer.ServicePacket{
		Source:      w.nodeID,
		Destination: w.marchTopic,
		Route:       route,
		PushUser:    []string{userID},
		Body: &protocol.Message{
			Type:  protocol.Request,
			Route: route,
			Data:  data,
		},
	}
	return w.MiddleWorker.PushMessage(packet)
}
