package events

import "time"

// Type 是短链生命周期事件的类型。
type Type string

const (
	LinkCreated Type = "link.created"
	LinkUpdated Type = "link.updated"
	LinkDeleted Type = "link.deleted"
	LinkClicked Type = "link.clicked"
)

// Event 是一次短链生命周期变化。
type Event struct {
	Type   Type      `json:"type"`
	LinkID int64     `json:"link_id,omitempty"`
	Code   string    `json:"code"`
	UserID *int64    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher 发布事件（方便在 Channel / Kafka 之间切换）。
//
// Publish 不返回错误：发布失败只记日志，不能影响主流程。
type Publisher interface {
	Publish(event Event)
	Close()
}

// Discard 丢弃所有事件。
type Discard struct{}

func (Discard) Publish(Event) {}
func (Discard) Close()        {}
