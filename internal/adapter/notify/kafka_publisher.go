package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits sale summaries to a topic for multi-instance
// deployments where dashboards consume from a broker instead of the
// in-process bus.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) PublishSaleCompleted(ctx context.Context, evt domain.SaleCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.SaleID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
