package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// 计数器数量取预期键数的 10 倍左右，路由缓存的键是 userID，千万级足够
const (
	cacheNumCounters = 1e7
	cacheBufferItems = 64
)

// GeneralCache 进程内 TTL 缓存
// connector 拿它垫在 redis 路由前面：userID -> game 节点的查询先走本地，
// 未命中或过期再落到 redis
type GeneralCache struct {
	store      *ristretto.Cache
	defaultTTL time.Duration
}

// NewGeneralCache 创建本地缓存
// maxCost 是内存上限（字节），defaultTTL 是 Set 时的默认过期时间
func NewGeneralCache(maxCost int64, defaultTTL time.Duration) (*GeneralCache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     maxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化本地缓存失败: %w", err)
	}

	return &GeneralCache{
		store:      store,
		defaultTTL: defaultTTL,
	}, nil
}

// Set 按默认 TTL 写入
func (c *GeneralCache) Set(key string, value interface{}) bool {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL 按指定 TTL 写入，cost 统一记 1（路由值都是短字符串）
func (c *GeneralCache) SetWithTTL(key string, value interface{}, ttl time.Duration) bool {
	return c.store.SetWithTTL(key, value, 1, ttl)
}

func (c *GeneralCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// GetString 取字符串值，类型不符按未命中处理
func (c *GeneralCache) GetString(key string) (string, bool) {
	value, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func (c *GeneralCache) Delete(key string) {
	c.store.Del(key)
}

func (c *GeneralCache) Close() {
	c.store.Close()
}
