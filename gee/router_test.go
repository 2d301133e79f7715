package gee

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(e *Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestStaticSegmentBeatsParam(t *testing.T) {
	engine := New()
	g := engine.Group("/links")
	g.GET("/:code", func(ctx *Context) { ctx.String(http.StatusOK, "code=%s", ctx.Param("code")) })
	g.GET("/search", func(ctx *Context) { ctx.String(http.StatusOK, "search") })
	g.GET("/list/links", func(ctx *Context) { ctx.String(http.StatusOK, "list") })
	g.GET("/:code/stats", func(ctx *Context) { ctx.String(http.StatusOK, "stats=%s", ctx.Param("code")) })

	cases := map[string]string{
		"/links/search":       "search",
		"/links/list/links":   "list",
		"/links/abc123":       "code=abc123",
		"/links/abc123/stats": "stats=abc123",
		"/links/list/stats":   "stats=list",
	}
	for target, want := range cases {
		w := serve(engine, http.MethodGet, target)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Errorf("%s: expected 200 %q, got %d %q", target, want, w.Code, w.Body.String())
		}
	}
}

func TestPutAndDeleteRoutes(t *testing.T) {
	engine := New()
	engine.PUT("/links/:code", func(ctx *Context) { ctx.String(http.StatusOK, "put %s", ctx.Param("code")) })
	engine.DELETE("/links/:code", func(ctx *Context) { ctx.NoContent(http.StatusNoContent) })

	if w := serve(engine, http.MethodPut, "/links/x1"); w.Body.String() != "put x1" {
		t.Errorf("unexpected PUT response: %q", w.Body.String())
	}
	if w := serve(engine, http.MethodDelete, "/links/x1"); w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("unexpected DELETE response: %d %q", w.Code, w.Body.String())
	}
}

func TestCatchAllParam(t *testing.T) {
	engine := New()
	engine.GET("/assets/*filepath", func(ctx *Context) { ctx.String(http.StatusOK, "%s", ctx.Param("filepath")) })

	if w := serve(engine, http.MethodGet, "/assets/css/site.css"); w.Body.String() != "css/site.css" {
		t.Errorf("unexpected catch-all value: %q", w.Body.String())
	}
}

func TestRoutePatternRecorded(t *testing.T) {
	engine := New()
	var pattern string
	engine.Use(func(ctx *Context) {
		ctx.Next()
		pattern = ctx.RoutePattern
	})
	engine.GET("/links/:code/stats", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	serve(engine, http.MethodGet, "/links/abc/stats")
	if pattern != "/links/:code/stats" {
		t.Errorf("unexpected route pattern %q", pattern)
	}
}

func TestGroupMiddlewareScope(t *testing.T) {
	engine := New()
	var hits []string
	links := engine.Group("/links")
	links.Use(func(ctx *Context) { hits = append(hits, ctx.Path); ctx.Next() })
	links.GET("/:code", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })
	engine.GET("/linksx", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })
	engine.GET("/healthz", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	serve(engine, http.MethodGet, "/links/a")
	serve(engine, http.MethodGet, "/linksx")
	serve(engine, http.MethodGet, "/healthz")

	if len(hits) != 1 || hits[0] != "/links/a" {
		t.Errorf("group middleware ran for %v", hits)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	engine := New()
	engine.GET("/exists", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	w := serve(engine, http.MethodGet, "/missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestCustomNoRoute(t *testing.T) {
	engine := New()
	engine.NoRoute(func(ctx *Context) { ctx.JSON(http.StatusNotFound, H{"error": "page not found"}) })

	w := serve(engine, http.MethodGet, "/missing")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "page not found") {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestMethodNotAllowedWithAllowHeader(t *testing.T) {
	engine := New()
	engine.GET("/links/:code", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })
	engine.PUT("/links/:code", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	w := serve(engine, http.MethodPost, "/links/abc")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != "GET, PUT" {
		t.Errorf("unexpected Allow header %q", allow)
	}
}

func TestNotFoundAndNoMethodGoThroughMiddleware(t *testing.T) {
	count := 0
	engine := New()
	engine.Use(func(ctx *Context) { count++; ctx.Next() })
	engine.GET("/test", func(ctx *Context) { ctx.String(http.StatusOK, "ok") })

	serve(engine, http.MethodGet, "/missing")
	serve(engine, http.MethodPost, "/test")

	if count != 2 {
		t.Errorf("middleware should run for 404 and 405, ran %d times", count)
	}
}
