package events

import (
	"context"
	"encoding/json"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes activity events as JSON messages keyed by the
// acting user, so one user's activity stays ordered within a partition.
type KafkaPublisher struct {
	writer *kgo.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kgo.Writer{
			Addr:                   kgo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kgo.Hash{},
			RequiredAcks:           kgo.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kgo.Message{
		Key:   []byte(event.Actor),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
