package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shorty.local/gee"
	"shorty.local/internal/app/links/repo"
	"shorty.local/internal/platform/auth"
)

// UserStore 由 repo.PostgresUsers / repo.SQLiteUsers 实现。
type UserStore interface {
	Register(ctx context.Context, name, email, password string) (int64, error)
	FindByUsername(ctx context.Context, username string) (repo.User, error)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewRegisterHandler(users UserStore) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req RegisterRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		email := strings.TrimSpace(req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			ctx.AbortWithError(http.StatusBadRequest, "invalid email")
			return
		}
		id, err := users.Register(ctx.Req.Context(), req.Username, email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, repo.ErrUserAlreadyExists):
				ctx.AbortWithError(http.StatusConflict, err.Error())
			case errors.Is(err, repo.ErrInvalidUsername), errors.Is(err, repo.ErrInvalidPassword):
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
			default:
				slog.Error("register user failed", "err", err)
				ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			}
			return
		}
		ctx.JSON(http.StatusCreated, RegisterResponse{
			ID:       id,
			Username: strings.TrimSpace(req.Username),
			Email:    email,
		})
	}
}

// NewLoginHandler 同时接受 JSON 和 OAuth2 password 表单（application/x-www-form-urlencoded）。
func NewLoginHandler(users UserStore, ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		var req LoginRequest
		if strings.HasPrefix(ctx.Req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			req.Username = ctx.Req.PostFormValue("username")
			req.Password = ctx.Req.PostFormValue("password")
		} else if err := ctx.BindJSON(&req); err != nil {
			return
		}
		if req.Username == "" || req.Password == "" {
			ctx.AbortWithError(http.StatusBadRequest, "username and password are required")
			return
		}

		dbctx, cancel := context.WithTimeout(ctx.Req.Context(), 2*time.Second)
		defer cancel()
		user, err := users.FindByUsername(dbctx, req.Username)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
				return
			}
			slog.Error("find user failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := ts.Sign(user.ID, user.Role)
		if err != nil {
			slog.Error("sign token failed", "user_id", user.ID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

func NewUserMeHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, _ := auth.GetIdentity(ctx.Req.Context())
		ctx.JSON(http.StatusOK, gee.H{
			"user_id": id.UserID,
			"role":    id.Role,
		})
	}
}
