package httpapi

import (
	"shorty.local/gee"
	"shorty.local/internal/app/links"
	"shorty.local/internal/platform/auth"
	"shorty.local/internal/platform/httpmiddleware"
)

// RegisterRoutes 挂载短链、注册登录和当前用户路由。
//
// 本包只做传输层：解析请求、调用 links.Service、把领域错误映射成状态码。
// /links 下全部是可选认证，是否必须登录由 Service 按操作决定（匿名调用修改类接口得到 401）。
func RegisterRoutes(engine *gee.Engine, svc *links.Service, users UserStore, ts auth.TokenService) {
	g := engine.Group("/links")
	g.Use(httpmiddleware.AuthOptional(ts))

	g.POST("/shorten", NewShortenHandler(svc))
	g.POST("/shorten/custom_alias", NewCustomAliasHandler(svc))
	g.POST("/pack", NewPackHandler(svc))
	g.GET("/search", NewSearchHandler(svc))
	g.GET("/list/links", NewListHandler(svc))

	// 静态段优先匹配，所以下面的 :code 不会吞掉 /search 和 /list/links
	g.GET("/:code", NewRedirectHandler(svc))
	g.PUT("/:code", NewUpdateHandler(svc))
	g.DELETE("/:code", NewDeleteHandler(svc))
	g.GET("/:code/stats", NewStatsHandler(svc))

	a := engine.Group("/auth")
	a.POST("/register", NewRegisterHandler(users))
	a.POST("/jwt/login", NewLoginHandler(users, ts))

	u := engine.Group("/users")
	u.Use(httpmiddleware.AuthRequired(ts))
	u.GET("/me", NewUserMeHandler())
}
