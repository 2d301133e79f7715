package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shorty.local/internal/platform/config"
)

// New 创建对外服务的 http.Server，超时全部来自配置。
func New(cfg config.Config, handler http.Handler) *http.Server {
	return build(cfg.Addr, cfg, handler)
}

// NewAdmin 创建管理端口（/metrics、/readyz、pprof），只应监听本机或内网地址。
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return build(cfg.AdminAddr, cfg, handler)
}

func build(addr string, cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run 启动 srv，stopCtx 结束后在 shutdownTimeout 内优雅关闭。
// 正常关闭返回 nil；监听失败或关闭超时返回错误。
func Run(stopCtx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-stopCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
