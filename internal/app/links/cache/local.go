package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的进程内负缓存（L1）。
//
// 别的实例创建同名短码时不会清掉这里，所以命中只能当提示用，调用方需要再向存储确认。
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache 创建本地缓存
// maxItems: 最大缓存条目数（建议 10000-100000）
// maxCost: 最大内存占用（cost=1 按条目计）
func NewLocalCache(maxItems int64, maxCost int64) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache: cache,
		ttl:   10 * time.Second,
	}, nil
}

func (l *LocalCache) IsMissing(code string) bool {
	_, ok := l.cache.Get(code)
	return ok
}

func (l *LocalCache) SetMissing(code string) {
	l.cache.SetWithTTL(code, struct{}{}, 1, l.ttl)
	// Set 是异步写入缓冲区的，Wait 之后下一次 Get 才能看到
	l.cache.Wait()
}

func (l *LocalCache) Del(code string) {
	l.cache.Del(code)
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
