package events

import (
	"context"
	"log/slog"
	"sync"
)

// ChannelPublisher 基于带缓冲 channel 的进程内发布器，满了直接丢弃。
type ChannelPublisher struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

func NewChannelPublisher(bufferSize int) *ChannelPublisher {
	return &ChannelPublisher{
		ch: make(chan Event, bufferSize),
	}
}

func (c *ChannelPublisher) Publish(event Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		slog.Warn("event dropped: buffer full", "type", event.Type, "code", event.Code)
	}
}

func (c *ChannelPublisher) Events() <-chan Event {
	return c.ch
}

func (c *ChannelPublisher) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// LogSink 消费 ChannelPublisher 的事件并写结构化日志。
type LogSink struct {
	source *ChannelPublisher
}

func NewLogSink(source *ChannelPublisher) *LogSink {
	return &LogSink{source: source}
}

// Run 阻塞消费，直到 ctx 取消或 channel 关闭。
func (s *LogSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.source.Events():
			if !ok {
				return
			}
			attrs := []any{"type", e.Type, "code", e.Code, "at", e.At}
			if e.LinkID != 0 {
				attrs = append(attrs, "link_id", e.LinkID)
			}
			if e.UserID != nil {
				attrs = append(attrs, "user_id", *e.UserID)
			}
			slog.Info("link event", attrs...)
		}
	}
}
