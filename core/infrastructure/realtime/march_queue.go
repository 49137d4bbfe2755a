package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/curetcore/dominodominicano/common/database"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/repository"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis Key 前缀，按对局模式拼接，如 march:queue:dominican:pairs4
	marchQueueKeyPrefix      = "march:queue:"
	marchPlayerInfoKeyPrefix = "march:player:info:"
	marchPlayerInfoTTL       = 30 * time.Minute // 玩家信息过期时间（比队列超时时间长）
)

// Lua 脚本：原子性地从队列中取出指定数量的玩家
// KEYS[1]: 队列 key (Sorted Set)
// KEYS[2]: 玩家信息 key (Hash: userID -> connectorTopic)
// ARGV[1]: count
// 返回：["userID1", "connectorTopic1", "userID2", "connectorTopic2", ...]
var popPlayersScript = `
local queueKey = KEYS[1]
local infoKey = KEYS[2]
local count = tonumber(ARGV[1])
local result = {}

local players = redis.call('ZRANGE', queueKey, 0, count - 1, 'WITHSCORES')

if #players == 0 then
    return {}
end

for i = 1, #players, 2 do
    local userID = players[i]

    local connectorTopic = redis.call('HGET', infoKey, userID)
    if connectorTopic == false then
        connectorTopic = ""
    end

    redis.call('ZREM', queueKey, userID)
    redis.call('HDEL', infoKey, userID)

    table.insert(result, userID)
    table.insert(result, connectorTopic)
end

return result
`

// RedisMarchQueueRepository Redis 实现的匹配队列仓储
type RedisMarchQueueRepository struct {
	redis         *database.RedisManager
	popPlayersSHA string
}

// NewRedisMarchQueueRepository 创建 Redis 匹配队列仓储
func NewRedisMarchQueueRepository(redisMgr *database.RedisManager) repository.MarchQueueRepository {
	repo := &RedisMarchQueueRepository{
		redis: redisMgr,
	}

	// 预编译 Lua 脚本（仅单机模式，集群模式运行时 EVAL）
	ctx := context.Background()
	if redisMgr.Cli != nil {
		sha, err := redisMgr.Cli.ScriptLoad(ctx, popPlayersScript).Result()
		if err != nil {
			log.Error("预编译 Lua 脚本失败: %v", err)
		} else {
			repo.popPlayersSHA = sha
			log.Info("Lua 脚本预编译成功: %s", sha)
		}
	} else {
		log.Info("集群模式，Lua 脚本将在运行时加载")
	}

	return repo
}

func queueKey(mode string) string {
	return marchQueueKeyPrefix + mode
}

func infoKey(mode string) string {
	return marchPlayerInfoKeyPrefix + mode
}

// JoinQueue 加入匹配队列
func (r *RedisMarchQueueRepository) JoinQueue(ctx context.Context, userID, connectorTopic string, mode string, score float64) error {
	cli, err := r.redis.GetClient()
	if err != nil {
		return err
	}

	// 检查是否已在队列中
	_, err = cli.ZScore(ctx, queueKey(mode), userID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("检查队列状态失败: %w", err)
	}
	if err == nil {
		return repository.ErrPlayerAlreadyInQueue
	}

	// 使用 Pipeline 保证原子性
	pipe := cli.Pipeline()
	pipe.ZAdd(ctx, queueKey(mode), redis.Z{
		Score:  score,
		Member: userID,
	})
	pipe.HSet(ctx, infoKey(mode), userID, connectorTopic)
	// 设置 Hash 过期时间（防止内存泄漏）
	pipe.Expire(ctx, infoKey(mode), marchPlayerInfoTTL)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("加入队列失败: %w", err)
	}

	log.Debug("玩家 %s 加入匹配队列 %s，分数: %.2f", userID, mode, score)
	return nil
}

// RemoveFromQueue 从队列中移除玩家
func (r *RedisMarchQueueRepository) RemoveFromQueue(ctx context.Context, userID string, mode string) error {
	cli, err := r.redis.GetClient()
	if err != nil {
		return err
	}

	pipe := cli.Pipeline()
	pipe.ZRem(ctx, queueKey(mode), userID)
	pipe.HDel(ctx, infoKey(mode), userID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("从队列移除玩家失败: %w", err)
	}

	log.Debug("玩家 %s 从匹配队列 %s 移除", userID, mode)
	return nil
}

// PopPlayers 从队列中取出指定数量的玩家（使用 Lua 脚本保证原子性）
func (r *RedisMarchQueueRepository) PopPlayers(ctx context.Context, mode string, count int) (map[string]string, error) {
	if count <= 0 {
		return make(map[string]string), nil
	}

	keys := []string{queueKey(mode), infoKey(mode)}
	var result any
	var err error

	if r.popPlayersSHA != "" && r.redis.Cli != nil {
		result, err = r.redis.Cli.EvalSha(ctx, r.popPlayersSHA, keys, count).Result()
		if err != nil && err.Error() == "NOSCRIPT No matching script. Use EVAL." {
			// 脚本未找到，重新加载
			sha, loadErr := r.redis.Cli.ScriptLoad(ctx, popPlayersScript).Result()
			if loadErr != nil {
				return nil, fmt.Errorf("重新加载 Lua 脚本失败: %w", loadErr)
			}
			r.popPlayersSHA = sha
			result, err = r.redis.Cli.EvalSha(ctx, r.popPlayersSHA, keys, count).Result()
		}
	} else {
		cli, cliErr := r.redis.GetClient()
		if cliErr != nil {
			return nil, cliErr
		}
		result, err = cli.Eval(ctx, popPlayersScript, keys, count).Result()
	}

	if err != nil {
		if err == redis.Nil {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("执行 Lua 脚本失败: %w", err)
	}

	strArray := make([]string, 0)
	if arr, ok := result.([]interface{}); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				strArray = append(strArray, s)
			}
		}
	}

	// 转换为 map（成对解析）
	resultMap := make(map[string]string, len(strArray)/2)
	for i := 0; i+1 < len(strArray); i += 2 {
		resultMap[strArray[i]] = strArray[i+1]
	}

	log.Debug("从匹配队列 %s 取出 %d 个玩家", mode, len(resultMap))
	return resultMap, nil
}

// GetQueueSize 获取队列当前大小
func (r *RedisMarchQueueRepository) GetQueueSize(ctx context.Context, mode string) (int, error) {
	cli, err := r.redis.GetClient()
	if err != nil {
		return 0, err
	}

	count, err := cli.ZCard(ctx, queueKey(mode)).Result()
	if err != nil {
		return 0, fmt.Errorf("获取队列大小失败: %w", err)
	}

	return int(count), nil
}

// IsInQueue 检查玩家是否在队列中
func (r *RedisMarchQueueRepository) IsInQueue(ctx context.Context, userID string, mode string) (bool, error) {
	cli, err := r.redis.GetClient()
	if err != nil {
		return false, err
	}

	_, err = cli.ZScore(ctx, queueKey(mode), userID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("检查队列状态失败: %w", err)
	}

	return true, nil
}

// RemoveExpiredPlayers 移除过期的玩家（等待时间超过指定时间）
// 队列分数为入队时间戳，早于 now-maxWaitTime 即过期
func (r *RedisMarchQueueRepository) RemoveExpiredPlayers(ctx context.Context, mode string, maxWaitTime time.Duration) ([]string, error) {
	cli, err := r.redis.GetClient()
	if err != nil {
		return nil, err
	}

	expiredScore := float64(time.Now().Add(-maxWaitTime).Unix())

	expiredPlayers, err := cli.ZRangeByScore(ctx, queueKey(mode), &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%.0f", expiredScore),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("查询过期玩家失败: %w", err)
	}

	if len(expiredPlayers) == 0 {
		return []string{}, nil
	}

	pipe := cli.Pipeline()
	for _, userID := range expiredPlayers {
		pipe.ZRem(ctx, queueKey(mode), userID)
		pipe.HDel(ctx, infoKey(mode), userID)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("移除过期玩家失败: %w", err)
	}

	log.Info("模式 %s 移除 %d 个过期玩家（等待时间超过 %v）", mode, len(expiredPlayers), maxWaitTime)
	return expiredPlayers, nil
}
