package internal

import (
	"context"
	"encoding/json"
	"redsyspay/entity"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher announces applied payment outcomes to the rest of the
// platform, keyed by order number.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *KafkaPublisher) PublishPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: payload,
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
