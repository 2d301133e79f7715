package gee

import (
	"log/slog"
	"net/http"
	"strings"
)

type HandlerFunc func(*Context)

// Engine 实现 http.Handler。根路由组就是 Engine 自己。
type Engine struct {
	*RouterGroup
	router   *router
	groups   []*RouterGroup
	noRoute  []HandlerFunc
	noMethod []HandlerFunc
}

// RouterGroup 共享前缀和中间件。子组的中间件在父组之后执行。
type RouterGroup struct {
	prefix      string
	middlewares []HandlerFunc
	engine      *Engine
}

func New() *Engine {
	engine := &Engine{router: newRouter()}
	engine.noRoute = []HandlerFunc{func(ctx *Context) {
		ctx.AbortWithError(http.StatusNotFound, "not found")
	}}
	engine.noMethod = []HandlerFunc{func(ctx *Context) {
		ctx.AbortWithError(http.StatusMethodNotAllowed, "method not allowed")
	}}
	engine.RouterGroup = &RouterGroup{engine: engine}
	engine.groups = []*RouterGroup{engine.RouterGroup}
	return engine
}

func (e *Engine) NoRoute(handlers ...HandlerFunc) {
	e.noRoute = handlers
}

func (e *Engine) NoMethod(handlers ...HandlerFunc) {
	e.noMethod = handlers
}

func (group *RouterGroup) Group(prefix string) *RouterGroup {
	g := &RouterGroup{
		prefix: group.prefix + prefix,
		engine: group.engine,
	}
	group.engine.groups = append(group.engine.groups, g)
	return g
}

// Use 添加中间件
func (group *RouterGroup) Use(middlewares ...HandlerFunc) {
	group.middlewares = append(group.middlewares, middlewares...)
}

// Handle 注册任意方法的路由；handlers 之前的可以当作路由级中间件。
func (group *RouterGroup) Handle(method, relativePath string, handlers ...HandlerFunc) {
	pattern := group.prefix + relativePath
	slog.Debug("route registered", "method", method, "pattern", pattern)
	group.engine.router.addRoute(method, pattern, handlers...)
}

func (group *RouterGroup) GET(pattern string, handlers ...HandlerFunc) {
	group.Handle(http.MethodGet, pattern, handlers...)
}

func (group *RouterGroup) POST(pattern string, handlers ...HandlerFunc) {
	group.Handle(http.MethodPost, pattern, handlers...)
}

func (group *RouterGroup) PUT(pattern string, handlers ...HandlerFunc) {
	group.Handle(http.MethodPut, pattern, handlers...)
}

func (group *RouterGroup) PATCH(pattern string, handlers ...HandlerFunc) {
	group.Handle(http.MethodPatch, pattern, handlers...)
}

func (group *RouterGroup) DELETE(pattern string, handlers ...HandlerFunc) {
	group.Handle(http.MethodDelete, pattern, handlers...)
}

func (e *Engine) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var chain []HandlerFunc
	for _, group := range e.groups {
		if inGroup(req.URL.Path, group.prefix) {
			chain = append(chain, group.middlewares...)
		}
	}
	ctx := newContext(w, req)
	ctx.handlers = chain
	e.router.handle(ctx, e)
}

// inGroup 按路径段匹配前缀，"/links" 不会匹配 "/linksx"。
func inGroup(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}
