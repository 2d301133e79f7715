package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"shorty.local/gee"
)

func TestReqIDGeneratesUUID(t *testing.T) {
	engine := gee.New()
	engine.Use(ReqID())
	var seen string
	engine.GET("/x", func(ctx *gee.Context) {
		seen = ctx.Req.Header.Get(RequestIDHeader)
		ctx.NoContent(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid request id, got %q", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q != request header %q", got, seen)
	}
}

func TestReqIDKeepsUpstreamValue(t *testing.T) {
	engine := gee.New()
	engine.Use(ReqID())
	engine.GET("/x", func(ctx *gee.Context) { ctx.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "from-proxy")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "from-proxy" {
		t.Errorf("expected upstream request id, got %q", got)
	}
}

func TestAccessLogWritesRoute(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	engine := gee.New()
	engine.Use(ReqID(), AccessLog())
	engine.GET("/links/:code", func(ctx *gee.Context) { ctx.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/links/abc123", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("access log is not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "access" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["route"] != "/links/:code" {
		t.Errorf("unexpected route: %v", entry["route"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("unexpected status: %v", entry["status"])
	}
	if entry["request_id"] == "" {
		t.Error("request_id missing")
	}
}
