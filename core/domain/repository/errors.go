package repository

import "errors"

var (
	// 匹配队列相关错误
	ErrPlayerAlreadyInQueue = errors.New("player already in queue")
	ErrPlayerNotInQueue     = errors.New("player not in queue")
	ErrQueueEmpty           = errors.New("queue is empty")
	ErrNotEnoughPlayers     = errors.New("not enough players in queue")

	// 用户路由相关错误
	ErrRouterNotFound = errors.New("user router not found")

	// 记录相关错误
	ErrRecordNotFound = errors.New("record not found")
)
