package gee

import (
	"sort"
	"strings"
)

// router 按方法分别维护一棵前缀树；handlers 的 key 是 "METHOD-pattern"。
type router struct {
	roots    map[string]*node
	handlers map[string][]HandlerFunc
}

func newRouter() *router {
	return &router{
		roots:    make(map[string]*node),
		handlers: make(map[string][]HandlerFunc),
	}
}

// splitPath 切分路径段；遇到 *catchall 后面的段全部忽略。
func splitPath(pattern string) []string {
	parts := make([]string, 0, 4)
	for _, item := range strings.Split(pattern, "/") {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: route " + method + " " + pattern + " has no handler")
	}
	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, splitPath(pattern), 0)
	r.handlers[method+"-"+pattern] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) getRoute(method, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}
	segments := splitPath(path)
	n := root.search(segments, 0)
	if n == nil {
		return nil, nil
	}

	params := make(map[string]string)
	for i, part := range splitPath(n.pattern) {
		switch part[0] {
		case ':':
			params[part[1:]] = segments[i]
		case '*':
			if len(part) > 1 {
				params[part[1:]] = strings.Join(segments[i:], "/")
			}
			return n, params
		}
	}
	return n, params
}

// handle 把路由 handler 接到中间件后面。404/405 同样经过中间件，方便统一记录日志和指标。
func (r *router) handle(c *Context, e *Engine) {
	if n, params := r.getRoute(c.Method, c.Path); n != nil {
		c.Params = params
		c.RoutePattern = n.pattern
		c.handlers = append(c.handlers, r.handlers[c.Method+"-"+n.pattern]...)
	} else if allow := r.allowedMethods(c.Path); len(allow) > 0 {
		c.SetHeader("Allow", strings.Join(allow, ", "))
		c.handlers = append(c.handlers, e.noMethod...)
	} else {
		c.handlers = append(c.handlers, e.noRoute...)
	}
	c.Next()
}

func (r *router) allowedMethods(path string) []string {
	var allow []string
	for method := range r.roots {
		if n, _ := r.getRoute(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	sort.Strings(allow)
	return allow
}
