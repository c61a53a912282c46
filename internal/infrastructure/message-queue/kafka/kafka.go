package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alimikegami/campus-platform/auth-service/config"
	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes domain events asynchronously; delivery errors are only logged.
type Publisher struct {
	writer messageWriter
}

func CreateKafkaPublisher(config *config.Config) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(config.KafkaConfig.BrokerAddress),
		Topic:        config.KafkaConfig.BrokerTopic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Str("component", "KafkaPublisher").Int("messages", len(messages)).Msg("failed to deliver events")
			}
		},
	}

	return &Publisher{writer: w}
}

func (p *Publisher) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	jsonMsg, err := json.Marshal(dto.KafkaMessage{EventType: eventType, Data: data})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: jsonMsg,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	log.Debug().Str("component", "NoopPublisher").Str("event_type", eventType).Msg("no broker configured; event dropped")
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
