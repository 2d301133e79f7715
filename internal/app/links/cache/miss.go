package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shorty.local/internal/platform/metrics"
)

const missKeyPrefix = "lk:miss:"

// MissCache 记录“短码不存在”，让对不存在短码的反复访问只走一次只读的存在性检查，不再执行 UPDATE。
//
// 两级：L1 ristretto（本进程）+ L2 Redis（多实例共享）。client 或 local 为 nil 时跳过对应层。
// 所有后端错误只记日志，视为未命中。
type MissCache struct {
	client *redis.Client
	local  *LocalCache
	ttl    time.Duration
}

func NewMissCache(client *redis.Client, local *LocalCache) *MissCache {
	return &MissCache{
		client: client,
		local:  local,
		ttl:    30 * time.Second,
	}
}

func (c *MissCache) IsMissing(ctx context.Context, code string) bool {
	if c.local != nil && c.local.IsMissing(code) {
		metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
		return true
	}
	if c.client == nil {
		return false
	}

	n, err := c.client.Exists(ctx, missKeyPrefix+code).Result()
	if err != nil {
		metrics.CacheOperations.WithLabelValues("l2", "error").Inc()
		slog.Warn("miss cache lookup failed", "code", code, "err", err)
		return false
	}
	if n == 0 {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return false
	}
	metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()

	// 回填本地缓存
	if c.local != nil {
		c.local.SetMissing(code)
	}
	return true
}

func (c *MissCache) MarkMissing(ctx context.Context, code string) {
	if c.local != nil {
		c.local.SetMissing(code)
	}
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, missKeyPrefix+code, "1", c.ttl).Err(); err != nil {
		slog.Warn("miss cache write failed", "code", code, "err", err)
	}
}

// Forget 在短码被创建后调用，清掉两级的负缓存。
func (c *MissCache) Forget(ctx context.Context, code string) {
	if c.local != nil {
		c.local.Del(code)
	}
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, missKeyPrefix+code).Err(); err != nil {
		slog.Warn("miss cache delete failed", "code", code, "err", err)
	}
}

// Close 关闭本地缓存
func (c *MissCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("local cache closed")
	}
}
