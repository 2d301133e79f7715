package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorty.local/internal/app/links"
)

var created = time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)

// testStoreContract 两种存储共用的行为测试。owner/other 必须是存在的用户 ID（Postgres 有外键）。
func testStoreContract(t *testing.T, s links.Store, owner, other int64) {
	ctx := context.Background()

	newLink := func(code, url string, creator *int64) *links.Link {
		return &links.Link{OriginalURL: url, ShortLink: code, CreatedAt: created, CreatorID: creator}
	}

	t.Run("insert and find", func(t *testing.T) {
		l := newLink("c-find", "https://find", &owner)
		require.NoError(t, s.Insert(ctx, l))
		assert.NotZero(t, l.ID)

		got, err := s.FindByCode(ctx, "c-find")
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
		assert.Equal(t, "https://find", got.OriginalURL)
		assert.Zero(t, got.Clicks)
		assert.Nil(t, got.LastUsedAt)
		assert.Nil(t, got.ExpiresAt)
		require.NotNil(t, got.CreatorID)
		assert.Equal(t, owner, *got.CreatorID)
		assert.True(t, created.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, created)

		_, err = s.FindByCode(ctx, "c-missing")
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("unique short link", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, newLink("c-dup", "https://one", nil)))
		err := s.Insert(ctx, newLink("c-dup", "https://two", nil))
		assert.ErrorIs(t, err, links.ErrCodeTaken)

		exists, err := s.CodeExists(ctx, "c-dup")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = s.CodeExists(ctx, "c-nope")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("batch is atomic", func(t *testing.T) {
		ok := []*links.Link{newLink("c-b1", "https://b1", nil), newLink("c-b2", "https://b2", nil)}
		require.NoError(t, s.InsertBatch(ctx, ok))
		assert.NotZero(t, ok[0].ID)
		assert.NotZero(t, ok[1].ID)

		bad := []*links.Link{newLink("c-b3", "https://b3", nil), newLink("c-b1", "https://again", nil)}
		assert.ErrorIs(t, s.InsertBatch(ctx, bad), links.ErrCodeTaken)
		exists, err := s.CodeExists(ctx, "c-b3")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("record click", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, newLink("c-click", "https://click", nil)))
		at := created.Add(time.Hour)

		url, err := s.RecordClick(ctx, "c-click", at)
		require.NoError(t, err)
		assert.Equal(t, "https://click", url)
		_, err = s.RecordClick(ctx, "c-click", at.Add(time.Minute))
		require.NoError(t, err)

		got, err := s.FindByCode(ctx, "c-click")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Clicks)
		require.NotNil(t, got.LastUsedAt)
		assert.True(t, at.Add(time.Minute).Equal(*got.LastUsedAt))

		_, err = s.RecordClick(ctx, "c-missing", at)
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("find by url picks lowest id", func(t *testing.T) {
		first := newLink("c-u1", "https://same", nil)
		require.NoError(t, s.Insert(ctx, first))
		require.NoError(t, s.Insert(ctx, newLink("c-u2", "https://same", nil)))

		got, err := s.FindByURL(ctx, "https://same")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		_, err = s.FindByURL(ctx, "https://never")
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("update is owner gated", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, newLink("c-upd", "https://before", &owner)))

		_, err := s.UpdateURL(ctx, "c-upd", other, "https://hijack")
		assert.ErrorIs(t, err, links.ErrNotFound)

		got, err := s.UpdateURL(ctx, "c-upd", owner, "https://after")
		require.NoError(t, err)
		assert.Equal(t, "https://after", got.OriginalURL)
		assert.Equal(t, "c-upd", got.ShortLink)
	})

	t.Run("delete is owner gated", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, newLink("c-del", "https://del", &owner)))

		assert.ErrorIs(t, s.Delete(ctx, "c-del", other), links.ErrNotFound)
		require.NoError(t, s.Delete(ctx, "c-del", owner))
		assert.ErrorIs(t, s.Delete(ctx, "c-del", owner), links.ErrNotFound)
	})

	t.Run("list by creator", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, newLink("c-o1", "https://o1", &other)))
		require.NoError(t, s.Insert(ctx, newLink("c-o2", "https://o2", &other)))

		list, err := s.ListByCreator(ctx, other)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "c-o1", list[0].ShortLink)
		assert.Equal(t, "c-o2", list[1].ShortLink)
	})

	t.Run("codes and ping", func(t *testing.T) {
		codes, err := s.Codes(ctx)
		require.NoError(t, err)
		assert.Contains(t, codes, "c-find")
		assert.NotContains(t, codes, "c-del")
		assert.NoError(t, s.Ping(ctx))
	})
}
