package gee

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
)

type H map[string]any

// abortIndex 要大于任何真实的 handler 下标，又不能大到嵌套 Next() 自增时溢出。
const abortIndex = math.MaxInt32

type Context struct {
	Writer *ResponseWriter
	Req    *http.Request

	Path         string
	Method       string
	Params       map[string]string
	RoutePattern string

	handlers []HandlerFunc
	index    int
}

func newContext(w http.ResponseWriter, req *http.Request) *Context {
	return &Context{
		Writer: NewResponseWriter(w),
		Req:    req,
		Path:   req.URL.Path,
		Method: req.Method,
		index:  -1,
	}
}

// Next 执行链上剩余的 handler。中间件在 Next 前后的代码分别是“请求前”和“请求后”。
func (c *Context) Next() {
	c.index++
	for ; c.index < len(c.handlers) && !c.IsAborted(); c.index++ {
		c.handlers[c.index](c)
	}
}

func (c *Context) Param(key string) string {
	return c.Params[key]
}

// Query 返回查询参数 key 的第一个值，不存在时为空串。
func (c *Context) Query(key string) string {
	return c.Req.URL.Query().Get(key)
}

func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

func (c *Context) SetHeader(key string, value string) {
	c.Writer.SetHeader(key, value)
}

func (c *Context) String(code int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	fmt.Fprintf(c.Writer, format, values...)
}

func (c *Context) JSON(code int, obj any) {
	body, err := json.Marshal(obj)
	if err != nil {
		slog.Error("json encode failed", "path", c.Path, "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	c.Writer.Write(append(body, '\n'))
}

// Redirect 写 Location 头并返回 code（301/302/307/308）。
func (c *Context) Redirect(code int, location string) {
	http.Redirect(c.Writer, c.Req, location, code)
}

// NoContent 只写状态码，不写 body（常用于 204）。
func (c *Context) NoContent(code int) {
	c.Status(code)
}

func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

func (c *Context) AbortWithStatus(code int) {
	c.Status(code)
	c.Abort()
}

// AbortWithStatusJSON 终止链并写 JSON；响应头已经写出时只终止。
func (c *Context) AbortWithStatusJSON(code int, obj any) {
	c.Abort()
	if c.Writer.Written() {
		return
	}
	c.JSON(code, obj)
}

func (c *Context) AbortWithError(code int, detail string) {
	c.AbortWithStatusJSON(code, NewErrorResponse(c, code, detail))
}
