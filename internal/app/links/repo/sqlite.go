package repo

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"shorty.local/internal/app/links"
)

// 时间统一以 UTC unix 纳秒存成 INTEGER，避免驱动之间的时间格式差异。
const sqliteLinksSchema = `
CREATE TABLE IF NOT EXISTS links (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  original_url TEXT    NOT NULL,
  short_link   TEXT    NOT NULL UNIQUE,
  created_at   INTEGER NOT NULL,
  clicks       INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
  last_used_at INTEGER,
  expires_at   INTEGER,
  creator_id   INTEGER
);
CREATE INDEX IF NOT EXISTS links_original_url_idx ON links (original_url);
CREATE INDEX IF NOT EXISTS links_creator_id_idx ON links (creator_id);
`

// SQLiteLinks 是基于 modernc.org/sqlite 的 links.Store，适合单机部署和测试。
type SQLiteLinks struct {
	db *sql.DB
}

// NewSQLiteLinks 建表（幂等）并返回 Store。
func NewSQLiteLinks(ctx context.Context, db *sql.DB) (*SQLiteLinks, error) {
	if _, err := db.ExecContext(ctx, sqliteLinksSchema); err != nil {
		return nil, err
	}
	return &SQLiteLinks{db: db}, nil
}

func (s *SQLiteLinks) Insert(ctx context.Context, l *links.Link) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return insertSQLite(dbctx, s.db, l)
}

type sqliteExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSQLite(ctx context.Context, q sqliteExecer, l *links.Link) error {
	err := q.QueryRowContext(ctx,
		"INSERT INTO links (original_url, short_link, created_at, clicks, creator_id) VALUES (?, ?, ?, 0, ?) RETURNING id",
		l.OriginalURL, l.ShortLink, toNanos(l.CreatedAt), nullableID(l.CreatorID),
	).Scan(&l.ID)
	if err != nil {
		if isSQLiteUnique(err) {
			return links.ErrCodeTaken
		}
		slog.Error("insert link failed", "code", l.ShortLink, "err", err)
		return err
	}
	return nil
}

func (s *SQLiteLinks) InsertBatch(ctx context.Context, ls []*links.Link) error {
	dbctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(dbctx, nil)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer tx.Rollback()

	for _, l := range ls {
		if err := insertSQLite(dbctx, tx, l); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (s *SQLiteLinks) CodeExists(ctx context.Context, code string) (bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var exists bool
	if err := s.db.QueryRowContext(dbctx, "SELECT EXISTS(SELECT 1 FROM links WHERE short_link = ?)", code).Scan(&exists); err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return exists, nil
}

func (s *SQLiteLinks) FindByCode(ctx context.Context, code string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanSQLiteLink(s.db.QueryRowContext(dbctx, "SELECT "+linkColumns+" FROM links WHERE short_link = ?", code))
}

func (s *SQLiteLinks) FindByURL(ctx context.Context, originalURL string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanSQLiteLink(s.db.QueryRowContext(dbctx, "SELECT "+linkColumns+" FROM links WHERE original_url = ? ORDER BY id LIMIT 1", originalURL))
}

func (s *SQLiteLinks) RecordClick(ctx context.Context, code string, at time.Time) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var url string
	err := s.db.QueryRowContext(dbctx,
		"UPDATE links SET clicks = clicks + 1, last_used_at = ? WHERE short_link = ? RETURNING original_url",
		toNanos(at), code,
	).Scan(&url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", links.ErrNotFound
		}
		slog.Error("record click failed", "code", code, "err", err)
		return "", err
	}
	return url, nil
}

func (s *SQLiteLinks) UpdateURL(ctx context.Context, code string, owner int64, originalURL string) (links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return scanSQLiteLink(s.db.QueryRowContext(dbctx,
		"UPDATE links SET original_url = ? WHERE short_link = ? AND creator_id = ? RETURNING "+linkColumns,
		originalURL, code, owner))
}

func (s *SQLiteLinks) Delete(ctx context.Context, code string, owner int64) error {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(dbctx, "DELETE FROM links WHERE short_link = ? AND creator_id = ?", code, owner)
	if err != nil {
		slog.Error("delete link failed", "code", code, "err", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (s *SQLiteLinks) ListByCreator(ctx context.Context, creatorID int64) ([]links.Link, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(dbctx, "SELECT "+linkColumns+" FROM links WHERE creator_id = ? ORDER BY id", creatorID)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	result := make([]links.Link, 0)
	for rows.Next() {
		l, err := scanSQLiteLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (s *SQLiteLinks) Codes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT short_link FROM links")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLiteLinks) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type sqliteScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row sqliteScanner) (links.Link, error) {
	var (
		l          links.Link
		createdAt  int64
		lastUsedAt sql.NullInt64
		expiresAt  sql.NullInt64
		creatorID  sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.OriginalURL, &l.ShortLink, &createdAt, &l.Clicks, &lastUsedAt, &expiresAt, &creatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return links.Link{}, links.ErrNotFound
		}
		slog.Error(err.Error())
		return links.Link{}, err
	}
	l.CreatedAt = fromNanos(createdAt)
	l.LastUsedAt = optionalTime(lastUsedAt)
	l.ExpiresAt = optionalTime(expiresAt)
	if creatorID.Valid {
		id := creatorID.Int64
		l.CreatorID = &id
	}
	return l, nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func optionalTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromNanos(v.Int64)
	return &t
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
