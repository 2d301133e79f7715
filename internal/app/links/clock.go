package links

import (
	"sync"
	"time"
)

// Clock 抽象“当前时间”，测试里换成 FixedClock，避免 time.Sleep。
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系统时间（UTC，截断到微秒，与 Postgres timestamptz 精度一致）。
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FixedClock 返回可控的时间。
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 把时间往后拨 d。
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
