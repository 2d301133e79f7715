package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPublisher_DropsWhenFull(t *testing.T) {
	p := NewChannelPublisher(1)
	p.Publish(Event{Type: LinkCreated, Code: "a"})
	p.Publish(Event{Type: LinkCreated, Code: "b"})
	p.Close()

	var got []string
	for e := range p.Events() {
		got = append(got, e.Code)
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestChannelPublisher_CloseIsIdempotent(t *testing.T) {
	p := NewChannelPublisher(4)
	p.Close()
	p.Close()
	// 关闭后发布不会 panic
	p.Publish(Event{Type: LinkClicked, Code: "a"})

	_, ok := <-p.Events()
	assert.False(t, ok)
}

func TestLogSink_StopsOnClose(t *testing.T) {
	p := NewChannelPublisher(8)
	done := make(chan struct{})
	go func() {
		NewLogSink(p).Run(context.Background())
		close(done)
	}()

	uid := int64(7)
	p.Publish(Event{Type: LinkCreated, LinkID: 1, Code: "a", UserID: &uid, At: time.Now()})
	p.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not stop after close")
	}
}

func TestLogSink_DrainsBufferAfterClose(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	p := NewChannelPublisher(8)
	for _, code := range []string{"a", "b", "c"} {
		p.Publish(Event{Type: LinkClicked, Code: code})
	}
	p.Close()

	// 关闭后启动也能把缓冲里的事件全部写出
	NewLogSink(p).Run(context.Background())
	assert.Equal(t, 3, strings.Count(buf.String(), `"msg":"link event"`))
}

func TestLogSink_StopsOnCancel(t *testing.T) {
	p := NewChannelPublisher(8)
	defer p.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewLogSink(p).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not stop after cancel")
	}
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Event{Type: LinkDeleted, Code: "abc123", At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"link.deleted","code":"abc123","at":"2024-03-01T12:00:00Z"}`, string(data))
}

func TestKafkaPublisher_Config(t *testing.T) {
	k := NewKafkaPublisher([]string{"localhost:9092"}, "link-events")
	assert.Equal(t, "link-events", k.writer.Topic)
	assert.True(t, k.writer.Async)
	// 没有发送过消息，关闭不需要连 broker
	k.Close()

	var _ Publisher = k
	var _ Publisher = NewChannelPublisher(1)
	var _ Publisher = Discard{}
}
