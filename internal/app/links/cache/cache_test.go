package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformcache "shorty.local/internal/platform/cache"
	"shorty.local/internal/platform/metrics"
)

func TestBloomFilter(t *testing.T) {
	b := NewBloomFilter(1000, 0.01)
	assert.False(t, b.MightExist("abc123"))

	b.Add("abc123")
	assert.True(t, b.MightExist("abc123"))
	assert.LessOrEqual(t, b.Count(), uint32(1))
}

func TestBloomFilter_Warm(t *testing.T) {
	b := NewBloomFilter(1000, 0.01)

	n, err := b.Warm(context.Background(), func(context.Context) ([]string, error) {
		return []string{"a1", "b2", "c3"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, code := range []string{"a1", "b2", "c3"} {
		assert.True(t, b.MightExist(code), code)
	}

	boom := errors.New("db down")
	_, err = b.Warm(context.Background(), func(context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestLocalCache(t *testing.T) {
	l, err := NewLocalCache(1000, 1000)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, l.IsMissing("ghost"))
	l.SetMissing("ghost")
	assert.True(t, l.IsMissing("ghost"))
	l.Del("ghost")
	assert.False(t, l.IsMissing("ghost"))
}

func TestMissCache_LocalOnly(t *testing.T) {
	l, err := NewLocalCache(1000, 1000)
	require.NoError(t, err)
	c := NewMissCache(nil, l)
	defer c.Close()

	ctx := context.Background()
	hits := metrics.CacheOperations.WithLabelValues("l1", "hit")
	before := testutil.ToFloat64(hits)

	assert.False(t, c.IsMissing(ctx, "ghost"))
	c.MarkMissing(ctx, "ghost")
	assert.True(t, c.IsMissing(ctx, "ghost"))
	assert.Equal(t, before+1, testutil.ToFloat64(hits))

	c.Forget(ctx, "ghost")
	assert.False(t, c.IsMissing(ctx, "ghost"))
}

func TestMissCache_NoLayers(t *testing.T) {
	c := NewMissCache(nil, nil)
	ctx := context.Background()

	c.MarkMissing(ctx, "ghost")
	assert.False(t, c.IsMissing(ctx, "ghost"))
	c.Forget(ctx, "ghost")
	c.Close()
}

// 需要本地 Redis：REDIS_ADDR=localhost:6379 go test ./internal/app/links/cache
func TestMissCache_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("skip: REDIS_ADDR not set")
	}
	client, err := platformcache.NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	code := fmt.Sprintf("test-%d", os.Getpid())

	// 两个实例共享 L2，本地缓存各自独立
	l1, err := NewLocalCache(1000, 1000)
	require.NoError(t, err)
	l2, err := NewLocalCache(1000, 1000)
	require.NoError(t, err)
	a := NewMissCache(client, l1)
	b := NewMissCache(client, l2)
	defer a.Close()
	defer b.Close()

	a.MarkMissing(ctx, code)
	assert.True(t, b.IsMissing(ctx, code))
	// b 已回填本地缓存
	assert.True(t, l2.IsMissing(code))

	a.Forget(ctx, code)
	l2.Del(code)
	assert.False(t, b.IsMissing(ctx, code))
}
