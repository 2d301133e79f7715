package httpapi

import (
	"time"

	"shorty.local/internal/app/links"
)

type ShortenRequest struct {
	OriginalURL string `json:"original_url"`
}

type CustomAliasRequest struct {
	OriginalURL string `json:"original_url"`
	CustomAlias string `json:"custom_alias"`
}

type PackRequest struct {
	OriginalURLs []string `json:"original_urls"`
}

type UpdateRequest struct {
	OriginalURL string `json:"original_url"`
}

// LinkResponse 缺省字段输出为 null，而不是省略。
type LinkResponse struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortLink   string     `json:"short_link"`
	CreatedAt   time.Time  `json:"created_at"`
	Clicks      int64      `json:"clicks"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatorID   *int64     `json:"creator_id"`
}

type StatsResponse struct {
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	Clicks      int64      `json:"clicks"`
	LastUsedAt  *time.Time `json:"last_used_at"`
}

// ShortLinkItem 是列表和批量创建返回的精简结构。
type ShortLinkItem struct {
	ShortLink   string `json:"short_link"`
	OriginalURL string `json:"original_url"`
}

func toLinkResponse(l links.Link) LinkResponse {
	return LinkResponse{
		ID:          l.ID,
		OriginalURL: l.OriginalURL,
		ShortLink:   l.ShortLink,
		CreatedAt:   l.CreatedAt,
		Clicks:      l.Clicks,
		LastUsedAt:  l.LastUsedAt,
		ExpiresAt:   l.ExpiresAt,
		CreatorID:   l.CreatorID,
	}
}

func toStatsResponse(s links.Stats) StatsResponse {
	return StatsResponse{
		OriginalURL: s.OriginalURL,
		CreatedAt:   s.CreatedAt,
		Clicks:      s.Clicks,
		LastUsedAt:  s.LastUsedAt,
	}
}

func toItems(ls []links.Link) []ShortLinkItem {
	out := make([]ShortLinkItem, 0, len(ls))
	for _, l := range ls {
		out = append(out, ShortLinkItem{ShortLink: l.ShortLink, OriginalURL: l.OriginalURL})
	}
	return out
}
