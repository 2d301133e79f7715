package links

import (
	"context"
	"time"
)

// Store 是 Link 的持久化边界（repo 包提供 Postgres / SQLite 实现）。
//
// 约定：
// - 找不到记录返回 ErrNotFound
// - 插入时命中 short_link 唯一约束返回 ErrCodeTaken（存储层是唯一性的最终裁决者）
// - 每个方法是一个独立的逻辑事务
type Store interface {
	// Insert 写入新短链，并回填 ID。
	Insert(ctx context.Context, l *Link) error
	// InsertBatch 在一个事务里写入全部短链：要么全部成功，要么一条都不落库。
	InsertBatch(ctx context.Context, ls []*Link) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByCode(ctx context.Context, code string) (Link, error)
	// FindByURL 返回 id 最小的那条。
	FindByURL(ctx context.Context, originalURL string) (Link, error)
	// RecordClick 用一条原子 UPDATE 把 clicks+1 并写 last_used_at，返回 original_url。
	RecordClick(ctx context.Context, code string, at time.Time) (string, error)
	// UpdateURL 只在 creator_id = owner 时生效；没有匹配行返回 ErrNotFound。
	UpdateURL(ctx context.Context, code string, owner int64, originalURL string) (Link, error)
	// Delete 只在 creator_id = owner 时生效；没有匹配行返回 ErrNotFound。
	Delete(ctx context.Context, code string, owner int64) error
	ListByCreator(ctx context.Context, creatorID int64) ([]Link, error)
	// Codes 返回全部已存在的短码，用于启动时预热布隆过滤器。
	Codes(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// MissCache 是“短码不存在”的负缓存。
// IsMissing 返回 true 可能已过期，Service 命中后仍会用 Store.CodeExists 确认。
// 实现应自行吞掉后端错误：缓存故障不能影响业务结果。
type MissCache interface {
	IsMissing(ctx context.Context, code string) bool
	MarkMissing(ctx context.Context, code string)
	Forget(ctx context.Context, code string)
}

// CodeFilter 记录本进程见过的短码（布隆过滤器）。
// MightExist 返回 false 表示一定没见过；返回 true 可能误判。
type CodeFilter interface {
	Add(code string)
	MightExist(code string) bool
}
