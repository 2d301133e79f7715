package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"shorty.local/gee"
	"shorty.local/internal/app/links"
)

// writeError 把领域错误映射成状态码。非业务错误只记日志，对外统一返回 500。
func writeError(ctx *gee.Context, err error) {
	switch {
	case errors.Is(err, links.ErrInvalidInput):
		ctx.AbortWithError(http.StatusBadRequest, err.Error())
	case errors.Is(err, links.ErrNotFound):
		ctx.AbortWithError(http.StatusNotFound, links.ErrNotFound.Error())
	case errors.Is(err, links.ErrUnauthorized):
		ctx.AbortWithError(http.StatusUnauthorized, links.ErrUnauthorized.Error())
	case errors.Is(err, links.ErrForbidden):
		ctx.AbortWithError(http.StatusForbidden, links.ErrForbidden.Error())
	case errors.Is(err, links.ErrConflict):
		ctx.AbortWithError(http.StatusConflict, links.ErrConflict.Error())
	default:
		slog.Error("request failed",
			"request_id", ctx.Req.Header.Get("X-Request-ID"),
			"method", ctx.Method,
			"route", ctx.RoutePattern,
			"err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "internal error")
	}
}
