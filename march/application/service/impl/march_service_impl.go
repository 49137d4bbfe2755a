package impl

import (
	"context"
	"fmt"
	"time"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
	"github.com/curetcore/dominodominicano/march/application/service"
)

type MatchServiceImpl struct {
	queueRepo  repository.MarchQueueRepository
	routerRepo repository.UserRouterRepository
}

func NewMatchService(
	queueRepo repository.MarchQueueRepository,
	routerRepo repository.UserRouterRepository,
) service.MatchService {
	return &MatchServiceImpl{
		queueRepo:  queueRepo,
		routerRepo: routerRepo,
	}
}

// JoinQueue 玩家加入指定模式的匹配队列
// 队列分数取入队时间，先来先服务
func (s *MatchServiceImpl) JoinQueue(ctx context.Context, userID, connectorTopic, mode string) error {
	if userID == "" || connectorTopic == "" {
		return fmt.Errorf("userID 和 connectorTopic 不能为空")
	}

	inQueue, err := s.queueRepo.IsInQueue(ctx, userID, mode)
	if err != nil {
		return fmt.Errorf("检查队列状态失败: %w", err)
	}
	if inQueue {
		return transfer.ErrPlayerAlreadyInQueue
	}

	// 还有在玩的对局时不允许入队，connector 漏拦时这里兜底
	hasGame, err := s.routerRepo.ExistsRouter(ctx, userID)
	if err != nil {
		return fmt.Errorf("检查用户路由失败: %w", err)
	}
	if hasGame {
		return transfer.ErrGameInProgress
	}

	score := float64(time.Now().Unix())
	if err := s.queueRepo.JoinQueue(ctx, userID, connectorTopic, mode, score); err != nil {
		return fmt.Errorf("加入队列失败: %w", err)
	}

	log.Info(fmt.Sprintf("玩家 %s 加入 %s 匹配队列", userID, mode))
	return nil
}

// LeaveQueue 玩家取消匹配
func (s *MatchServiceImpl) LeaveQueue(ctx context.Context, userID, mode string) error {
	if err := s.queueRepo.RemoveFromQueue(ctx, userID, mode); err != nil {
		return fmt.Errorf("从队列移除失败: %w", err)
	}

	log.Info(fmt.Sprintf("玩家 %s 离开 %s 匹配队列", userID, mode))
	return nil
}
