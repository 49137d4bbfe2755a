package container

import (
	"fmt"
	"sync"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/persistence"
	"github.com/curetcore/dominodominicano/game"
	"github.com/curetcore/dominodominicano/game/application/service/impl"
	"github.com/curetcore/dominodominicano/game/engines"
	"github.com/curetcore/dominodominicano/game/engines/domino"
)

// GameContainer game 服务专用容器
// 继承 BaseContainer 的数据库连接，添加 game 服务特定的依赖
type GameContainer struct {
	*BaseContainer
	gameRecordRepository repository.GameRecordRepository
	GameWorker           *game.Worker
	closed               bool
	mu                   sync.Mutex
}

// NewGameContainer 创建 game 服务容器
func NewGameContainer() *GameContainer {
	base := NewBase(config.GameNodeConfig.DatabaseConf)
	if base == nil {
		log.Fatal("基础容器初始化失败")
		return nil
	}

	// 创建 game 服务需要的仓储
	recordRepo := persistence.NewGameRecordRepository(base.mongo)
	// 创建 GameWorker
	worker := game.NewWorker(config.GameNodeConfig.ID)
	worker.SetGameRecordRepository(recordRepo)
	// 步骤 1：创建 Engine 原型（使用原型模式，注入 Worker）
	enginePrototypes := createEnginePrototypes(worker)
	// 步骤 2：注入 Engine 原型到 RoomManager
	for engineType, engine := range enginePrototypes {
		if err := worker.RoomManager.SetEnginePrototype(engineType, engine); err != nil {
			log.Fatal("注入 Engine 原型失败: %v", err)
			return nil
		}
	}

	// 步骤 3：创建 GameService 并注入 Worker
	gameService := impl.NewGameService(worker.RoomManager)
	worker.SetGameService(gameService)

	return &GameContainer{
		BaseContainer:        base,
		gameRecordRepository: recordRepo,
		GameWorker:           worker,
	}
}

// createEnginePrototypes 创建所有 Engine 原型
// 三种对局模式各一个原型，机器人难度来自节点规则配置
func createEnginePrototypes(worker *game.Worker) map[engines.EngineType]engines.Engine {
	botLevel := domino.BotDifficulty(config.GameNodeConfig.GameRules.BotDifficulty)

	prototypes := make(map[engines.EngineType]engines.Engine)
	prototypes[engines.DOMINICAN_PAIRS_4P_ENGINE] = domino.NewDominicanDomino(worker, domino.ModeDominican, domino.TeamPairs, 4, botLevel)
	prototypes[engines.DOMINICAN_INDIVIDUAL_4P_ENGINE] = domino.NewDominicanDomino(worker, domino.ModeDominican, domino.TeamIndividual, 4, botLevel)
	prototypes[engines.DOMINICAN_INDIVIDUAL_2P_ENGINE] = domino.NewDominicanDomino(worker, domino.ModeClassic, domino.TeamIndividual, 2, botLevel)

	log.Info("GameContainer 创建 Engine 原型完成，共 %d 个引擎", len(prototypes))
	return prototypes
}

// Close 关闭容器资源（幂等操作，可以安全地多次调用）
// 关闭顺序：1. GameWorker 2. BaseContainer（数据库连接）
func (c *GameContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var errs []error

	if c.GameWorker != nil {
		c.GameWorker.Close()
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

	log.Info("GameContainer 已关闭")
	return nil
}
