package march

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/node"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/protocol"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	svc "github.com/curetcore/dominodominicano/game/application/service"
	"github.com/curetcore/dominodominicano/march/application/service"
)

/*
	匹配器职责：
	1.按模式维护匹配池，定时从 redis 队列撮合满员的一局
	2.实时监控 game 节点的负载信息，匹配成功时做负载均衡
	3.匹配成功后通过 nats 请求 game 节点建房
	4.管理玩家和 game 节点的路由，供 connector 转发与断线重连查询
*/

const routerTTL = 2 * time.Hour // 路由缓存时间，够打完一整局

type Worker struct {
	NodeID          string
	matchService    service.MatchService
	natsWorker      *node.NatsWorker
	routerRepo      repository.UserRouterRepository
	nodeSelector    *NodeSelector
	matchPools      []*MatchPool
	matchResultChan chan *service.MatchResult // 统一的结果 channel
	stopChan        chan struct{}             // 停止信号
	wg              sync.WaitGroup            // 等待所有 goroutine 结束
}

type queueOpResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func NewWorker(matchService service.MatchService, routerRepo repository.UserRouterRepository, nodeID string) *Worker {
	return &Worker{
		NodeID:          nodeID,
		matchService:    matchService,
		natsWorker:      node.NewNatsWorker(),
		routerRepo:      routerRepo,
		matchResultChan: make(chan *service.MatchResult, 1024),
		stopChan:        make(chan struct{}),
	}
}

// InitMatchPools 从配置初始化匹配池
func (w *Worker) InitMatchPools(queueRepo repository.MarchQueueRepository, nodeSelector *NodeSelector) error {
	w.nodeSelector = nodeSelector

	if len(config.MarchNodeConfig.MarchPoolConfigs) == 0 {
		log.Warn("配置中没有匹配池配置")
		return nil
	}

	pools := make([]*MatchPool, 0, len(config.MarchNodeConfig.MarchPoolConfigs))
	for _, poolConfig := range config.MarchNodeConfig.MarchPoolConfigs {
		pool, err := NewMatchPool(
			poolConfig,
			queueRepo,
			nodeSelector,
			w.matchResultChan,
		)
		if err != nil {
			return fmt.Errorf("创建匹配池 [%s] 失败: %w", poolConfig.PoolID, err)
		}
		pools = append(pools, pool)
		log.Info("匹配池 [%s] 初始化成功", poolConfig.PoolID)
	}

	w.matchPools = pools
	log.Info(fmt.Sprintf("March Worker[%s] 初始化 %d 个匹配池", w.NodeID, len(pools)))
	return nil
}

// Start 启动 nats 服务和匹配结果处理
func (w *Worker) Start(ctx context.Context, natsURL string) error {
	w.registerHandlers()

	err := w.natsWorker.Run(natsURL, w.NodeID)
	if err != nil {
		return fmt.Errorf("启动 NATS 监听失败: %v", err)
	}
	log.Info(fmt.Sprintf("March Worker[%s] 启动 NATS 监听成功, topic: %s", w.NodeID, w.NodeID))

	go w.processMatchResults(ctx)
	for _, pool := range w.matchPools {
		pool.Start()
	}

	log.Info(fmt.Sprintf("March Worker[%s] 启动成功，已启动 %d 个匹配池", w.NodeID, len(w.matchPools)))
	return nil
}

func (w *Worker) registerHandlers() {
	handlers := make(node.SubscriberHandler)
	handlers[transfer.JoinQueue] = w.handleJoinQueue
	handlers[transfer.CancelQueue] = w.handleCancelQueue
	w.natsWorker.RegisterHandlers(handlers)
	w.natsWorker.RegisterPushHandler(w.handlePush)
}

// handleJoinQueue 玩家请求匹配
func (w *Worker) handleJoinQueue(message []byte) any {
	var req transfer.JoinQueueDTO
	if err := json.Unmarshal(message, &req); err != nil {
		return &queueOpResp{Success: false, Message: "请求解析失败"}
	}

	if err := w.matchService.JoinQueue(context.Background(), req.UserID, req.ConnectorTopic, req.Mode); err != nil {
		log.Warn("March Worker[%s] 玩家 %s 入队失败: %v", w.NodeID, req.UserID, err)
		return &queueOpResp{Success: false, Message: err.Error()}
	}
	return &queueOpResp{Success: true}
}

// handleCancelQueue 玩家取消匹配
func (w *Worker) handleCancelQueue(message []byte) any {
	var req transfer.JoinQueueDTO
	if err := json.Unmarshal(message, &req); err != nil {
		return &queueOpResp{Success: false, Message: "请求解析失败"}
	}

	if err := w.matchService.LeaveQueue(context.Background(), req.UserID, req.Mode); err != nil {
		log.Warn("March Worker[%s] 玩家 %s 取消匹配失败: %v", w.NodeID, req.UserID, err)
		return &queueOpResp{Success: false, Message: err.Error()}
	}
	return &queueOpResp{Success: true}
}

// handlePush 接收其它节点的回包
// 目前只有 game 节点建房的应答，失败时记录日志便于排查
func (w *Worker) handlePush(users []string, body *protocol.Message, route string) {
	if body.Type != protocol.Response || route != transfer.RoomCreate {
		return
	}

	var resp svc.CreateRoomResp
	if err := json.Unmarshal(body.Data, &resp); err != nil {
		log.Warn("March Worker[%s] 建房应答解析失败: %v", w.NodeID, err)
		return
	}
	if !resp.Success {
		// fixme 通知客户端匹配失败，让玩家重新入队
		log.Error("March Worker[%s] game 节点建房失败: %s", w.NodeID, resp.Message)
		return
	}
	log.Info(fmt.Sprintf("March Worker[%s] game 节点建房成功: roomID=%s", w.NodeID, resp.RoomID))
}

// processMatchResults 统一处理所有匹配结果
func (w *Worker) processMatchResults(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	log.Info(fmt.Sprintf("March Worker[%s] 匹配结果处理启动", w.NodeID))

	for {
		select {
		case result := <-w.matchResultChan:
			if result == nil {
				continue
			}
			if err := w.handleMatchSuccess(ctx, result); err != nil {
				log.Error(fmt.Sprintf("March Worker[%s] 处理匹配结果失败: %v", w.NodeID, err))
				// fixme 通知客户端匹配失败
			}
		case <-w.stopChan:
			log.Info(fmt.Sprintf("March Worker[%s] 匹配结果处理收到停止信号", w.NodeID))
			return
		case <-ctx.Done():
			log.Info(fmt.Sprintf("March Worker[%s] 匹配结果处理收到上下文取消信号", w.NodeID))
			return
		}
	}
}

// handleMatchSuccess 处理匹配成功
// 先落地玩家路由再请求建房，connector 随后就能按路由转发游戏消息
func (w *Worker) handleMatchSuccess(ctx context.Context, result *service.MatchResult) error {
	if err := w.saveRouters(ctx, result); err != nil {
		return fmt.Errorf("保存玩家路由失败: %w", err)
	}
	if err := w.callGameCreateRoom(result); err != nil {
		// fixme 通知匹配异常
		return fmt.Errorf("调用 Game 创建房间失败: %w", err)
	}
	log.Info(fmt.Sprintf("March Worker 匹配成功处理完成: poolID=%s, gameNode=%s, players=%d", result.PoolID, result.GameNodeID, len(result.Players)))
	return nil
}

// saveRouters 记录每个玩家所在的 game 节点，断线重连时由 connector 查询
func (w *Worker) saveRouters(ctx context.Context, result *service.MatchResult) error {
	for userID, connectorTopic := range result.Players {
		info := &repository.UserRouterInfo{
			GameTopic:      result.GameNodeID,
			ConnectorTopic: connectorTopic,
		}
		if err := w.routerRepo.SaveRouter(ctx, userID, info, routerTTL); err != nil {
			return err
		}
	}
	return nil
}

// callGameCreateRoom 通过 nats 请求 game 节点创建房间
// 建房结果由 handlePush 异步回收，玩家的开局通知由 game 节点直接推送
func (w *Worker) callGameCreateRoom(result *service.MatchResult) error {
	req := &svc.CreateRoomReq{
		Players: result.Players,
		Mode:    result.PoolID,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("建房请求序列化失败: %v", err)
	}

	packet := &transfer.ServicePacket{
		Source:      w.NodeID,
		Destination: result.GameNodeID,
		Route:       transfer.RoomCreate,
		Body: &protocol.Message{
			Type:  protocol.Request,
			Route: transfer.RoomCreate,
			Data:  data,
		},
	}
	if err = w.natsWorker.PushMessage(packet); err != nil {
		return fmt.Errorf("发送建房请求失败: %v", err)
	}

	log.Info(fmt.Sprintf("March Worker 已请求建房: poolID=%s, gameNode=%s, players=%d",
		result.PoolID, result.GameNodeID, len(result.Players)))
	return nil
}

// Close 关闭 Worker
func (w *Worker) Close() error {
	for _, pool := range w.matchPools {
		pool.Stop()
	}

	close(w.stopChan)
	w.wg.Wait()

	if w.nodeSelector != nil {
		w.nodeSelector.Close()
	}
	if w.natsWorker != nil {
		w.natsWorker.Close()
	}

	log.Info(fmt.Sprintf("March Worker[%s] 已关闭", w.NodeID))
	return nil
}
