package repository

import (
	"context"
	"time"
)

// MarchQueueRepository 匹配队列仓储接口
// 基于 Redis Sorted Set 实现，按对局模式划分队列，每个模式独立队列
type MarchQueueRepository interface {
	// JoinQueue 加入匹配队列（按模式）
	JoinQueue(ctx context.Context, userID, connectorTopic string, mode string, score float64) error

	// RemoveFromQueue 从队列中移除玩家（按模式）
	RemoveFromQueue(ctx context.Context, userID string, mode string) error

	// PopPlayers 从队列中取出指定数量的玩家（按分数从低到高）
	// 返回 userID -> connectorTopic
	PopPlayers(ctx context.Context, mode string, count int) (map[string]string, error)

	// GetQueueSize 获取队列当前大小（按模式）
	GetQueueSize(ctx context.Context, mode string) (int, error)

	// IsInQueue 检查玩家是否在队列中（按模式）
	IsInQueue(ctx context.Context, userID string, mode string) (bool, error)

	// RemoveExpiredPlayers 移除等待超时的玩家（按模式）
	RemoveExpiredPlayers(ctx context.Context, mode string, maxWaitTime time.Duration) ([]string, error)
}
