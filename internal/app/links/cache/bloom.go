package cache

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter 记录本进程见过的短码。
//
// 只用于批量创建时提前淘汰候选短码：误判只会浪费一次尝试，真正的唯一性仍由存储层保证。
type BloomFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewBloomFilter 创建布隆过滤器
// expectedItems: 预期存储的元素数量
// falsePositiveRate: 误判率（建议 0.01 即 1%）
func NewBloomFilter(expectedItems uint, falsePositiveRate float64) *BloomFilter {
	return &BloomFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func (b *BloomFilter) Add(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.AddString(code)
}

// MightExist 返回 false 表示一定不存在，true 表示可能存在
func (b *BloomFilter) MightExist(code string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.TestString(code)
}

// Count 返回已添加的元素数量（估算）
func (b *BloomFilter) Count() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.ApproximatedSize()
}

// Warm 用存储中已有的全部短码预热。
func (b *BloomFilter) Warm(ctx context.Context, codes func(context.Context) ([]string, error)) (int, error) {
	list, err := codes(ctx)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, code := range list {
		b.filter.AddString(code)
	}
	return len(list), nil
}
