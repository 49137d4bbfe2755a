package container

import (
	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/conn"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/node"
	"github.com/curetcore/dominodominicano/core/infrastructure/realtime"
)

type ConnectorContainer struct {
	*BaseContainer
	worker     *conn.Worker
	natsWorker *node.NatsWorker
	routerRepo repository.UserRouterRepository
}

func NewConnectorContainer() *ConnectorContainer {
	base := NewBase(config.ConnectorConfig.DatabaseConf)
	if base == nil {
		log.Fatal("基础容器初始化失败")
		return nil
	}

	return &ConnectorContainer{
		BaseContainer: base,
		routerRepo:    realtime.NewRedisUserRouterRepository(base.redis),
	}
}

// GetNatsWorker 获取或创建 NATS Worker
func (c *ConnectorContainer) GetNatsWorker() *node.NatsWorker {
	if c.natsWorker == nil {
		c.natsWorker = node.NewNatsWorker()
		if c.natsWorker == nil {
			log.Fatal("NATS Worker 初始化失败")
		}
	}
	return c.natsWorker
}

// GetWorker 获取或创建 Worker
func (c *ConnectorContainer) GetWorker() *conn.Worker {
	if c.worker == nil {
		c.worker = conn.NewWorker(c.GetNatsWorker(), c.routerRepo)
		if c.worker == nil {
			log.Fatal("Worker 初始化失败")
		}
	}
	return c.worker
}

// Close 关闭所有资源
func (c *ConnectorContainer) Close() error {
	if c.worker != nil {
		c.worker.Close()
	}
	if c.natsWorker != nil {
		c.natsWorker.Close()
	}
	return c.BaseContainer.Close()
}
