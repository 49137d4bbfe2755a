package container

import (
	"fmt"
	"sync"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/discovery"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/realtime"
	"github.com/curetcore/dominodominicano/march"
	"github.com/curetcore/dominodominicano/march/application/service"
	"github.com/curetcore/dominodominicano/march/application/service/impl"
)

type MarchContainer struct {
	*BaseContainer
	repository.MarchQueueRepository
	repository.UserRouterRepository
	MarchWorker  *march.Worker
	MatchService service.MatchService
	NodeID       string
	closed       bool
	mu           sync.Mutex
}

func NewMarchContainer() *MarchContainer {
	base := NewBase(config.MarchNodeConfig.DatabaseConf)
	if base == nil {
		log.Fatal("基础容器初始化失败")
		return nil
	}
	queueRepository := realtime.NewRedisMarchQueueRepository(base.redis)
	routerRepository := realtime.NewRedisUserRouterRepository(base.redis)
	nodeSelector, err := march.NewNodeSelector(config.MarchNodeConfig.EtcdConf, discovery.LeastLoad)
	if err != nil {
		log.Fatal("NodeSelector 创建错误 err:%#v", err)
		return nil
	}
	matchService := impl.NewMatchService(queueRepository, routerRepository)
	worker := march.NewWorker(matchService, routerRepository, config.MarchNodeConfig.ID)
	if err := worker.InitMatchPools(queueRepository, nodeSelector); err != nil {
		log.Fatal("初始化匹配池失败: %v", err)
		return nil
	}

	return &MarchContainer{
		BaseContainer:        base,
		MarchQueueRepository: queueRepository,
		UserRouterRepository: routerRepository,
		MarchWorker:          worker,
		MatchService:         matchService,
		NodeID:               config.MarchNodeConfig.ID,
	}
}

// Close 关闭容器资源（幂等操作，可以安全地多次调用）
// NodeSelector 由 MarchWorker 持有并随其关闭
func (c *MarchContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var errs []error

	if c.MarchWorker != nil {
		if err := c.MarchWorker.Close(); err != nil {
			log.Error("MarchWorker 关闭失败: %v", err)
			errs = append(errs, err)
		}
	}
	if c.BaseContainer != nil {
		if err := c.BaseContainer.Close(); err != nil {
			log.Error("BaseContainer 关闭失败: %v", err)
			errs = append(errs, err)
		}
	}

	c.closed = true

	if len(errs) > 0 {
		return fmt.Errorf("关闭资源时发生 %d 个错误", len(errs))
	}

	log.Info("MarchContainer 已关闭")
	return nil
}
