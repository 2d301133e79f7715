package gee

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery 捕获 handler 中的 panic，记录堆栈并返回 500。
// 响应已经开始写出时只能终止链，状态码保持原样。
func Recovery() HandlerFunc {
	return func(ctx *Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"request_id", ctx.Req.Header.Get("X-Request-ID"),
				"method", ctx.Method,
				"path", ctx.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "internal server error")
		}()
		ctx.Next()
	}
}
