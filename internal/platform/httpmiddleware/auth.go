package httpmiddleware

import (
	"net/http"
	"strings"

	"shorty.local/gee"
	"shorty.local/internal/platform/auth"
)

// parseBearer 解析 Authorization header 中的 Bearer token，格式不对返回空串。
func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

func withClaims(ctx *gee.Context, c auth.Claims) {
	ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), auth.Identity{
		UserID: c.UserID,
		Role:   c.Role,
	}))
}

// AuthRequired 要求请求必须携带有效的 JWT token
func AuthRequired(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		header := ctx.Req.Header.Get("Authorization")
		if header == "" {
			ctx.AbortWithError(http.StatusUnauthorized, "missing authorization header")
			return
		}
		token := parseBearer(header)
		if token == "" {
			ctx.AbortWithError(http.StatusUnauthorized, "invalid authorization format")
			return
		}
		claims, err := ts.Verify(token)
		if err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, "invalid token")
			return
		}
		withClaims(ctx, claims)
		ctx.Next()
	}
}

// AuthOptional 可选认证：有合法 token 就写入身份，没有或无效都按匿名处理。
func AuthOptional(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		token := parseBearer(ctx.Req.Header.Get("Authorization"))
		if token == "" {
			ctx.Next()
			return
		}
		if claims, err := ts.Verify(token); err == nil {
			withClaims(ctx, claims)
		}
		ctx.Next()
	}
}
