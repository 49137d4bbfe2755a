package march

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/march/application/service"
)

const maxWaitTime = 10 * time.Minute // 队列超时：10分钟

// MatchPool 匹配池
// 每个对局模式一个池，独立管理自己的匹配逻辑和定时任务
type MatchPool struct {
	poolID          string
	strategy        MatchStrategy
	batchSize       int           // 每次匹配尝试的次数
	interval        time.Duration // 匹配间隔
	requiredPlayers int           // 需要的玩家数量（根据 poolID 推断）

	queueRepo    repository.MarchQueueRepository
	nodeSelector *NodeSelector
	resultChan   chan<- *service.MatchResult // 匹配结果 channel（只发送）

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMatchPool 创建匹配池
func NewMatchPool(cfg config.MarchPoolConfig,
	queueRepo repository.MarchQueueRepository,
	nodeSelector *NodeSelector,
	resultChan chan<- *service.MatchResult,
) (*MatchPool, error) {
	requiredPlayers := inferRequiredPlayers(string(cfg.PoolID))
	strategy, err := createStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	return &MatchPool{
		poolID:          string(cfg.PoolID),
		strategy:        strategy,
		batchSize:       cfg.BatchSize,
		interval:        time.Duration(cfg.Internal) * time.Millisecond,
		requiredPlayers: requiredPlayers,
		queueRepo:       queueRepo,
		nodeSelector:    nodeSelector,
		resultChan:      resultChan,
		stopChan:        make(chan struct{}),
	}, nil
}

func (p *MatchPool) Start() {
	go p.matchLoop()
	log.Info("匹配池 [%s] 启动，间隔: %v, 批次大小: %d, 需要玩家数: %d", p.poolID, p.interval, p.batchSize, p.requiredPlayers)
}

// matchLoop 匹配循环（定时触发）
func (p *MatchPool) matchLoop() {
	p.wg.Add(1)
	ticker := time.NewTicker(p.interval)

	defer p.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.doBatchMatch()
			p.evictExpired()
		case <-p.stopChan:
			log.Info("匹配池 [%s] 收到停止信号", p.poolID)
			return
		}
	}
}

// doBatchMatch 执行批次匹配
// 尝试 batchSize 次匹配
func (p *MatchPool) doBatchMatch() {
	for i := 0; i < p.batchSize; i++ {
		result, err := p.tryMatch()
		if err != nil {
			log.Error("匹配池 [%s] 匹配尝试失败: %v", p.poolID, err)
			continue
		} else if result == nil {
			// 匹配池已经空了
			break
		}

		// 发送匹配结果到 channel
		select {
		case p.resultChan <- result:
		case <-p.stopChan:
			log.Warn("匹配池 [%s] 收到停止信号，丢弃匹配结果", p.poolID)
			return
		}
	}
}

// tryMatch 尝试一次匹配
func (p *MatchPool) tryMatch() (*service.MatchResult, error) {
	ctx := context.Background()

	// Lua 脚本保证人数不足时不取出任何玩家
	players, err := p.strategy.Match(ctx, p.queueRepo, p.poolID, p.requiredPlayers)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, nil
	}
	if len(players) < p.requiredPlayers {
		log.Warn("匹配池 [%s] 取出玩家数量异常: 期望 %d 人，实际 %d 人", p.poolID, p.requiredPlayers, len(players))
		return nil, nil
	}

	gameNode, err := p.nodeSelector.SelectGameNode(ctx)
	if err != nil {
		return nil, err
	}

	return &service.MatchResult{
		PoolID:     p.poolID,
		Players:    players,
		GameNodeID: gameNode.NodeID,
	}, nil
}

// evictExpired 清理等待超时的玩家
func (p *MatchPool) evictExpired() {
	ctx := context.Background()
	expired, err := p.queueRepo.RemoveExpiredPlayers(ctx, p.poolID, maxWaitTime)
	if err != nil {
		log.Warn("匹配池 [%s] 清理超时玩家失败: %v", p.poolID, err)
		return
	}
	if len(expired) > 0 {
		log.Info("匹配池 [%s] 清理 %d 个超时玩家", p.poolID, len(expired))
	}
}

func (p *MatchPool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
	log.Info("匹配池 [%s] 已停止", p.poolID)
}

// inferRequiredPlayers 根据 poolID 推断需要的玩家数量
func inferRequiredPlayers(poolID string) int {
	if strings.Contains(poolID, "individual2") {
		return 2
	}
	// 默认 4 人
	return 4
}

// createStrategy 根据策略名称创建匹配策略实例
func createStrategy(strategy config.MatchStrategy) (MatchStrategy, error) {
	switch strategy {
	case config.ScorePoll:
		return NewPollStrategy(), nil
	default:
		return nil, fmt.Errorf("不支持的匹配策略: %s", strategy)
	}
}
