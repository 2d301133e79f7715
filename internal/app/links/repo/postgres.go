package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shorty.local/internal/app/links"
)

const linkColumns = "id, original_url, short_link, created_at, clicks, last_used_at, expires_at, creator_id"

const insertLinkSQL = "INSERT INTO links (original_url, short_link, created_at, clicks, creator_id) VALUES ($1, $2, $3, 0, $4) RETURNING id"

// PostgresLinks 是基于 pgx 连接池的 links.Store。
//
// short_link 的唯一性由表上的 UNIQUE 约束保证（见 migrations/0001_init.sql），
// 插入冲突（SQLSTATE 23505）统一翻译成 links.ErrCodeTaken。
type PostgresLinks struct {
	db *pgxpool.Pool
}

func NewPostgresLinks(db *pgxpool.Pool) *PostgresLinks {
	return &PostgresLinks{db: db}
}

func (s *PostgresLinks) Insert(ctx context.Context, l *links.Link) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.db.QueryRow(dbctx, insertLinkSQL, l.OriginalURL, l.ShortLink, l.CreatedAt, l.CreatorID).Scan(&l.ID); err != nil {
		if isUniqueViolation(err) {
			return links.ErrCodeTaken
		}
		slog.Error("insert link failed", "code", l.ShortLink, "err", err)
		return err
	}
	return nil
}

func (s *PostgresLinks) InsertBatch(ctx context.Context, ls []*links.Link) error {
	dbctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer tx.Rollback(dbctx) //提交成功后 rollback 无效，可忽略

	batch := &pgx.Batch{}
	for _, l := range ls {
		batch.Queue(insertLinkSQL, l.OriginalURL, l.ShortLink, l.CreatedAt, l.CreatorID)
	}
	br := tx.SendBatch(dbctx, batch)
	for _, l := range ls {
		if err := br.QueryRow().Scan(&l.ID); err != nil {
			br.Close()
			if isUniqueViolation(err) {
				return links.ErrCodeTaken
			}
			slog.Error("insert link batch failed", "code", l.ShortLink, "err", err)
			return err
		}
	}
	if err := br.Close(); err != nil {
		slog.Error(err.Error())
		return err
	}

	if err := tx.Commit(dbctx); err != nil {
		if isUniqueViolation(err) {
			return links.ErrCodeTaken
		}
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (s *PostgresLinks) CodeExists(ctx context.Context, code string) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var exists bool
	if err := s.db.QueryRow(dbctx, "SELECT EXISTS(SELECT 1 FROM links WHERE short_link=$1)", code).Scan(&exists); err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return exists, nil
}

func (s *PostgresLinks) FindByCode(ctx context.Context, code string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanLink(s.db.QueryRow(dbctx, "SELECT "+linkColumns+" FROM links WHERE short_link=$1", code))
}

func (s *PostgresLinks) FindByURL(ctx context.Context, originalURL string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanLink(s.db.QueryRow(dbctx, "SELECT "+linkColumns+" FROM links WHERE original_url=$1 ORDER BY id LIMIT 1", originalURL))
}

// RecordClick 单条语句完成计数，不做 read-modify-write。
func (s *PostgresLinks) RecordClick(ctx context.Context, code string, at time.Time) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var url string
	err := s.db.QueryRow(dbctx, "UPDATE links SET clicks = clicks + 1, last_used_at = $2 WHERE short_link = $1 RETURNING original_url", code, at).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", links.ErrNotFound
		}
		slog.Error("record click failed", "code", code, "err", err)
		return "", err
	}
	return url, nil
}

func (s *PostgresLinks) UpdateURL(ctx context.Context, code string, owner int64, originalURL string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanLink(s.db.QueryRow(dbctx,
		"UPDATE links SET original_url=$3 WHERE short_link=$1 AND creator_id=$2 RETURNING "+linkColumns,
		code, owner, originalURL))
}

func (s *PostgresLinks) Delete(ctx context.Context, code string, owner int64) error {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	tag, err := s.db.Exec(dbctx, "DELETE FROM links WHERE short_link=$1 AND creator_id=$2", code, owner)
	if err != nil {
		slog.Error("delete link failed", "code", code, "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (s *PostgresLinks) ListByCreator(ctx context.Context, creatorID int64) ([]links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(dbctx, "SELECT "+linkColumns+" FROM links WHERE creator_id=$1 ORDER BY id", creatorID)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	result := make([]links.Link, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return result, nil
}

func (s *PostgresLinks) Codes(ctx context.Context) ([]string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.Query(dbctx, "SELECT short_link FROM links")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresLinks) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanLink(row pgx.Row) (links.Link, error) {
	var l links.Link
	if err := row.Scan(&l.ID, &l.OriginalURL, &l.ShortLink, &l.CreatedAt, &l.Clicks, &l.LastUsedAt, &l.ExpiresAt, &l.CreatorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return links.Link{}, links.ErrNotFound
		}
		slog.Error(err.Error())
		return links.Link{}, err
	}
	return l, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
