// Package events delivers domain events to Kafka, or to the log when no
// broker is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event type to its own topic:
// "<prefix>.<event type>".
type KafkaPublisher struct {
	brokers []string
	prefix  string
	logger  *slog.Logger

	mu        sync.Mutex
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers
func NewKafkaPublisher(brokers []string, topicPrefix string, logger *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: brokers,
		prefix:  strings.TrimSuffix(topicPrefix, "."),
		logger:  logger,
		writers: make(map[string]messageWriter),
	}
	p.newWriter = func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

// Topic returns the topic an event type is written to
func (p *KafkaPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *KafkaPublisher) writerFor(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish groups events by topic and writes them keyed by aggregate
func (p *KafkaPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	byTopic := make(map[string][]kafka.Message)
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = time.Now().UTC()
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.Type, err)
		}
		topic := p.Topic(e.Type)
		byTopic[topic] = append(byTopic[topic], kafka.Message{
			Key:   []byte(e.Key),
			Value: payload,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	for topic, msgs := range byTopic {
		if err := p.writerFor(topic).WriteMessages(ctx, msgs...); err != nil {
			p.logger.Error("kafka publish failed", "topic", topic, "count", len(msgs), "error", err)
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
	}
	return nil
}

// Close flushes and closes every writer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]messageWriter)
	return firstErr
}

// LogPublisher logs events instead of delivering them
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "domain event", "type", e.Type, "key", e.Key, "actor_id", e.ActorID)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// New picks the Kafka publisher when brokers are configured
func New(brokers []string, topicPrefix string, logger *slog.Logger) domain.EventPublisher {
	if len(brokers) == 0 {
		return NewLogPublisher(logger)
	}
	return NewKafkaPublisher(brokers, topicPrefix, logger)
}
