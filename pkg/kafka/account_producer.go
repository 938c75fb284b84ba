// pkg/kafka/account_producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicAccountEvents = "account.events"

	EventUserRegistered       = "user.registered"
	EventUserSocialFirstLogin = "user.social_first_login"
	EventUserLogin            = "user.login"
)

// AccountEventMessage is published on registration completion and on
// social first login so downstream services can provision the account.
type AccountEventMessage struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AccountEventProducer struct {
	producer sarama.SyncProducer
}

func NewAccountEventProducer(brokers []string) (*AccountEventProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &AccountEventProducer{producer: producer}, nil
}

// Publish sends an account event, partitioned by user ID.
func (p *AccountEventProducer) Publish(ctx context.Context, msg *AccountEventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: TopicAccountEvents,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Printf("account event %s sent to partition %d at offset %d", msg.EventType, partition, offset)
	return nil
}

func (p *AccountEventProducer) Close() error {
	return p.producer.Close()
}
