package impl

import (
	"context"
	"fmt"

	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/game"
	"github.com/curetcore/dominodominicano/game/application/service"
)

type GameServiceImpl struct {
	roomManager *game.RoomManager
}

// NewGameService 创建 GameService 实例
func NewGameService(roomManager *game.RoomManager) service.GameService {
	return &GameServiceImpl{
		roomManager: roomManager,
	}
}

// CreateRoom 创建匹配成功的对局房间
func (s *GameServiceImpl) CreateRoom(ctx context.Context, req *service.CreateRoomReq) (*service.CreateRoomResp, error) {
	if req == nil {
		return &service.CreateRoomResp{
			Success: false,
			Message: "请求不能为空",
		}, nil
	}

	if len(req.Players) == 0 {
		return &service.CreateRoomResp{
			Success: false,
			Message: "玩家列表不能为空",
		}, nil
	}

	// 创建房间并立即开局，开局推送在 Engine.InitializeEngine 中完成
	room, err := s.roomManager.CreateMatchedRoom(req.Players, req.Mode)
	if err != nil {
		log.Error(fmt.Sprintf("GameService 创建房间失败: %v", err))
		return &service.CreateRoomResp{
			Success: false,
			Message: err.Error(),
		}, nil
	}

	log.Info(fmt.Sprintf("GameService 创建房间成功: %s, 模式: %s, 玩家数: %d", room.ID, req.Mode, len(req.Players)))

	return &service.CreateRoomResp{
		Success: true,
		RoomID:  room.ID,
		Message: "房间创建成功",
	}, nil
}
