package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/curetcore/dominodominicano/common/database"
	"github.com/curetcore/dominodominicano/core/domain/repository"

	"github.com/redis/go-redis/v9"
)

const userRouterKey = "game:router" // userID -> 路由信息 json

// RedisUserRouterRepository Redis 实现的用户路由仓储
// 路由存在表示用户有正在进行的对局，重连时据此定位 game 节点
type RedisUserRouterRepository struct {
	redis *database.RedisManager
}

// NewRedisUserRouterRepository 创建 Redis 用户路由仓储
func NewRedisUserRouterRepository(redisMgr *database.RedisManager) repository.UserRouterRepository {
	return &RedisUserRouterRepository{
		redis: redisMgr,
	}
}

func routerKey(userID string) string {
	return userRouterKey + ":" + userID
}

func (r *RedisUserRouterRepository) SaveRouter(ctx context.Context, userID string, info *repository.UserRouterInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, routerKey(userID), string(data), ttl)
}

func (r *RedisUserRouterRepository) GetRouter(ctx context.Context, userID string) (*repository.UserRouterInfo, error) {
	cmd := r.redis.Get(ctx, routerKey(userID))
	if cmd == nil {
		return nil, repository.ErrRouterNotFound
	}
	data, err := cmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrRouterNotFound
		}
		return nil, err
	}

	var info repository.UserRouterInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *RedisUserRouterRepository) DeleteRouter(ctx context.Context, userID string) error {
	return r.redis.Del(ctx, routerKey(userID))
}

func (r *RedisUserRouterRepository) DeleteRouters(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, routerKey(userID))
	}
	return r.redis.Del(ctx, keys...)
}

func (r *RedisUserRouterRepository) ExistsRouter(ctx context.Context, userID string) (bool, error) {
	count, err := r.redis.Exists(ctx, routerKey(userID))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
