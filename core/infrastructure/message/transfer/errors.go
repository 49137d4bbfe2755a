package transfer

import (
	"errors"
)

var (
	// 匹配队列相关错误
	ErrPlayerAlreadyInQueue = errors.New("user already in queue")
	ErrPlayerNotInQueue     = errors.New("user not in queue")
	ErrQueueEmpty           = errors.New("queue is empty")
	ErrNotEnoughPlayers     = errors.New("not enough players in queue")

	// 用户路由相关错误
	ErrRouterNotFound = errors.New("user router not found")

	ErrMongodb = errors.New("mongodb error happen")
	ErrRedis   = errors.New("redis error happen")
)

// 房间相关错误
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrAlreadyInRoom   = errors.New("user already in room")
	ErrNotInRoom       = errors.New("user not in room")
	ErrGameInProgress  = errors.New("game already in progress")
	ErrNotHost         = errors.New("only host can do this")
	ErrNotEnoughSeats  = errors.New("not enough players seated")
	ErrSeatUnsupported = errors.New("unsupported player count for this mode")
)

// 连接相关错误
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendChanFull     = errors.New("send channel full")
	ErrNotConnected     = errors.New("not connected")
)

// 消息相关错误
var (
	ErrInvalidRoute     = errors.New("invalid route")
	ErrHandlerNotFound  = errors.New("handler not found")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrMessageMarshal   = errors.New("message marshal error")
	ErrMessageUnmarshal = errors.New("message unmarshal error")
	ErrArgument         = errors.New("argument error")
	ErrService          = errors.New("service error")
)

// 负载均衡相关错误
var (
	ErrNoAvailableInstance = errors.New("no available instance")
	ErrLoadBalanceFailed   = errors.New("load balance failed")
)
