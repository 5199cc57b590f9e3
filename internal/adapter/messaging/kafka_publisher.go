package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

const (
	batchTimeout = 10 * time.Millisecond
	batchSize    = 100
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			BatchSize:              batchSize,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish keys messages by selection so one product's sales stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, receipt domain.Receipt) error {
	value, err := json.Marshal(NewVendCompletedEvent(receipt))
	if err != nil {
		return fmt.Errorf("marshal receipt %s: %w", receipt.ID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(receipt.Selection.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "receipt_id", Value: []byte(receipt.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write receipt %s: %w", receipt.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
