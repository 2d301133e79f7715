package links

import (
	"errors"
	"time"
)

// Link 是短链领域对象。
//
// 说明：
// - ShortLink 全局唯一，创建后不可修改（只能删除后重建）
// - CreatorID 为 nil 表示匿名创建，这类短链任何人都不能修改/删除
// - ExpiresAt 仅作为保留字段，当前逻辑不读取也不写入
//
// 领域层不带 JSON tag，HTTP 的响应结构放在 httpapi。
type Link struct {
	ID          int64
	OriginalURL string
	ShortLink   string
	CreatedAt   time.Time
	Clicks      int64
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
	CreatorID   *int64
}

// OwnedBy 判断 userID 是否为短链的创建者。匿名短链对任何人都返回 false。
func (l Link) OwnedBy(userID int64) bool {
	return l.CreatorID != nil && *l.CreatorID == userID
}

// Stats 是 Link 的只读投影。
type Stats struct {
	OriginalURL string
	CreatedAt   time.Time
	Clicks      int64
	LastUsedAt  *time.Time
}

// StatsOf 从 Link 中取出统计字段。
func StatsOf(l Link) Stats {
	return Stats{
		OriginalURL: l.OriginalURL,
		CreatedAt:   l.CreatedAt,
		Clicks:      l.Clicks,
		LastUsedAt:  l.LastUsedAt,
	}
}

// 业务错误。httpapi 用 errors.Is 把它们映射成状态码：
// NotFound->404, Forbidden->403, Unauthorized->401, Conflict->409, InvalidInput->400。
var (
	ErrNotFound     = errors.New("no link")
	ErrForbidden    = errors.New("not the owner of this link")
	ErrUnauthorized = errors.New("you are not authorized")
	ErrConflict     = errors.New("short link exists, create another")
	ErrInvalidInput = errors.New("invalid input")
)

// ErrCodeTaken 由 Store 在插入命中 short_link 唯一约束时返回。
// Service 会把它转换成 ErrConflict（或在 Shorten 中换一个短码重试）。
var ErrCodeTaken = errors.New("short link already taken")
