package service

import (
	"context"
)

// MatchService 匹配服务接口
type MatchService interface {
	JoinQueue(ctx context.Context, userID, connectorTopic, mode string) error
	LeaveQueue(ctx context.Context, userID, mode string) error
}

// MatchResult 匹配结果
type MatchResult struct {
	PoolID     string            // 匹配池 ID，同时是对局模式
	Players    map[string]string // userID -> connectorTopic
	GameNodeID string            // game 节点 ID（用于 NATS topic）
}
