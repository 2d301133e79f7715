package repo

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const sqliteUsersSchema = `
CREATE TABLE IF NOT EXISTS users (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  username      TEXT    NOT NULL UNIQUE,
  email         TEXT    NOT NULL DEFAULT '',
  password_hash TEXT    NOT NULL,
  role          TEXT    NOT NULL DEFAULT 'user',
  registered_at INTEGER NOT NULL
);
`

type SQLiteUsers struct {
	db *sql.DB
}

func NewSQLiteUsers(ctx context.Context, db *sql.DB) (*SQLiteUsers, error) {
	if _, err := db.ExecContext(ctx, sqliteUsersSchema); err != nil {
		return nil, err
	}
	return &SQLiteUsers{db: db}, nil
}

func (u *SQLiteUsers) FindByUsername(ctx context.Context, username string) (User, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user User
	err := u.db.QueryRowContext(dbctx,
		"SELECT id, username, email, password_hash, role FROM users WHERE username = ? LIMIT 1",
		strings.TrimSpace(username),
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		slog.Error(err.Error())
		return User{}, err
	}
	return user, nil
}

func (u *SQLiteUsers) Register(ctx context.Context, name, email, password string) (int64, error) {
	name, hash, err := prepareUser(name, password)
	if err != nil {
		return -1, err
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err = u.db.QueryRowContext(dbctx,
		"INSERT INTO users (username, email, password_hash, role, registered_at) VALUES (?, ?, ?, 'user', ?) ON CONFLICT (username) DO NOTHING RETURNING id",
		name, strings.TrimSpace(email), hash, toNanos(time.Now()),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return -1, ErrUserAlreadyExists
		}
		slog.Error(err.Error())
		return -1, err
	}
	return id, nil
}
