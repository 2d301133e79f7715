package repo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrInvalidUsername = errors.New("username is not allowed")
var ErrInvalidPassword = errors.New("password is not allowed")

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// prepareUser 校验用户名/密码并生成 bcrypt 哈希，两种存储共用。
func prepareUser(name, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 32 {
		return "", "", ErrInvalidUsername
	}
	// bcrypt 只使用前 72 字节
	if len(password) < 8 || len(password) > 72 {
		return "", "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error(err.Error())
		return "", "", err
	}
	return name, string(hash), nil
}

type PostgresUsers struct {
	db *pgxpool.Pool
}

func NewPostgresUsers(db *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (u *PostgresUsers) FindByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := u.db.QueryRow(dbctx, "SELECT id, username, email, password_hash, role FROM users WHERE username=$1 LIMIT 1", username)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		slog.Error(err.Error())
		return User{}, err
	}
	return user, nil
}

func (u *PostgresUsers) Register(ctx context.Context, name, email, password string) (int64, error) {
	name, hash, err := prepareUser(name, password)
	if err != nil {
		return -1, err
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	if err := u.db.
		QueryRow(dbctx, "INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, 'user') ON CONFLICT (username) DO NOTHING RETURNING id", name, strings.TrimSpace(email), hash).
		Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return -1, ErrUserAlreadyExists
		}
		slog.Error(err.Error())
		return -1, err
	}
	return id, nil
}
