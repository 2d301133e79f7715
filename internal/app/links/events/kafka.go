package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher 把事件以 JSON 写入 Kafka，按短码做 key 保证同一短链的事件有序。
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Async:        true, // 异步发送
			BatchTimeout: 50 * time.Millisecond,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("kafka write failed", "err", err, "count", len(messages))
				}
			},
		},
	}
}

func (k *KafkaPublisher) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal event failed", "err", err)
		return
	}
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Code),
		Value: data,
	}); err != nil {
		slog.Error("kafka write failed", "err", err, "type", event.Type)
	}
}

func (k *KafkaPublisher) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}
