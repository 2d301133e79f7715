package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Options struct {
	// Dir 为空时依次尝试 ./migrations 和可执行文件旁边的 migrations。
	Dir string
}

type Result struct {
	Dir     string
	Applied []string
	Skipped []string
}

// Up 按文件名顺序执行尚未记录在 schema_migrations 里的 .sql 文件，每个文件一个事务。
func Up(ctx context.Context, db *pgxpool.Pool, opts Options) (*Result, error) {
	dir, err := resolveDir(opts.Dir)
	if err != nil {
		return nil, err
	}
	files, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	done, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	res := &Result{Dir: dir}
	res.Applied, res.Skipped = Pending(files, done)
	for _, name := range res.Applied {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := apply(ctx, db, name, string(body)); err != nil {
			return nil, err
		}
		slog.Info("migration applied", "version", name)
	}
	return res, nil
}

func apply(ctx context.Context, db *pgxpool.Pool, name, body string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, body); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

// List 返回 fsys 根目录下排好序的 .sql 文件名。
func List(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Pending 把 files 分成待执行和已执行两组，保持原有顺序。
func Pending(files, applied []string) (todo, skipped []string) {
	seen := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		seen[v] = struct{}{}
	}
	for _, f := range files {
		if _, ok := seen[f]; ok {
			skipped = append(skipped, f)
			continue
		}
		todo = append(todo, f)
	}
	return todo, skipped
}

func resolveDir(opt string) (string, error) {
	if strings.TrimSpace(opt) != "" {
		return filepath.Clean(opt), nil
	}
	if st, err := os.Stat("migrations"); err == nil && st.IsDir() {
		return filepath.Abs("migrations")
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	dir := filepath.Join(filepath.Dir(exe), "migrations")
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return "", fmt.Errorf("migrations dir not found (tried %s)", dir)
	}
	return dir, nil
}
