package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/container"
)

// RunGame 启动 game 节点：建房、对局引擎、战绩落地、负载上报
func RunGame(ctx context.Context) error {
	gameContainer := container.NewGameContainer()
	if gameContainer == nil {
		log.Fatal("game 容器初始化失败")
		return nil
	}
	defer func() {
		if err := gameContainer.Close(); err != nil {
			log.Error("关闭 game 容器失败: %v", err)
		}
	}()

	go func() {
		err := gameContainer.GameWorker.Start(
			ctx,
			config.GameNodeConfig.NatsConfig.URL,
			config.GameNodeConfig.EtcdConf,
		)
		if err != nil {
			log.Fatal("worker 启动失败，err:%#v", err)
		}
	}()

	return waitForSignal(ctx, "game", func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			if err := gameContainer.Close(); err != nil {
				log.Warn("关闭 game 容器失败: %v", err)
			}
			close(done)
		}()

		select {
		case <-done:
			log.Info("game 服务已关闭")
		case <-shutdownCtx.Done():
			log.Warn("关闭 game 服务超时（5秒），defer 会确保资源最终被释放")
		}
	})
}

// RunConnector 启动 connector 节点：websocket 网关 + nats 转发
func RunConnector(ctx context.Context) error {
	connectorContainer := container.NewConnectorContainer()
	if connectorContainer == nil {
		log.Fatal("connector 容器初始化失败")
		return nil
	}
	defer connectorContainer.Close()

	worker := connectorContainer.GetWorker()
	if worker == nil {
		log.Fatal("Worker 获取失败")
		return nil
	}

	go func() {
		err := worker.Run(
			config.ConnectorConfig.NatsConfig.URL,
			config.ConnectorConfig.WsAddr,
		)
		if err != nil {
			log.Fatal("worker 启动失败: %v", err)
		}
	}()

	return waitForSignal(ctx, "connector", func() {
		worker.Close()
		log.Info("Worker 已关闭")
	})
}

// RunMarch 启动 march 节点：匹配池 + 建房调度
func RunMarch(ctx context.Context) error {
	marchContainer := container.NewMarchContainer()
	if marchContainer == nil {
		log.Fatal("march 容器初始化失败")
		return nil
	}
	defer func() {
		if err := marchContainer.Close(); err != nil {
			log.Error("关闭 march 容器失败: %v", err)
		}
	}()

	go func() {
		err := marchContainer.MarchWorker.Start(
			ctx,
			config.MarchNodeConfig.NatsConfig.URL,
		)
		if err != nil {
			log.Fatal("worker 启动失败: %v", err)
		}
	}()

	return waitForSignal(ctx, "march", func() {
		if err := marchContainer.Close(); err != nil {
			log.Warn("关闭 march 容器失败: %v", err)
		}
	})
}

// waitForSignal 阻塞到进程信号或上下文取消
func waitForSignal(ctx context.Context, name string, stop func()) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case s := <-c:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("中断信号，%s 服务停止", name)
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("挂起信号，%s 服务停止", name)
				return nil
			default:
				return nil
			}
		}
	}
}
