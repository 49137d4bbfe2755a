package service

import "context"

type GameService interface {
	CreateRoom(ctx context.Context, req *CreateRoomReq) (*CreateRoomResp, error)
}

type CreateRoomReq struct {
	Players map[string]string `json:"players"` // userID -> connectorTopic
	Mode    string            `json:"mode"`    // 对局模式，见 config.ModePairs4 等
}

type CreateRoomResp struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomID"`
	Message string `json:"message"`
}
