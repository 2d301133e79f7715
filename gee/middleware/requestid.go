package middleware

import (
	"github.com/google/uuid"

	"shorty.local/gee"
)

const RequestIDHeader = "X-Request-ID"

// ReqID 沿用上游传入的 X-Request-ID，没有就生成一个 UUID，并回写到响应头。
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			ctx.Req.Header.Set(RequestIDHeader, id)
		}
		ctx.SetHeader(RequestIDHeader, id)
		ctx.Next()
	}
}
