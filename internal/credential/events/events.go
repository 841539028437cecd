// Package events publishes credential lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"idverse/internal/credential/outbox"
	"idverse/internal/platform/kafka/producer"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeIssued    Type = "credential.issued"
	TypeRevoked   Type = "credential.revoked"
	TypePresented Type = "credential.presented"
)

// DefaultTopic is the Kafka topic lifecycle events are written to.
const DefaultTopic = "vc.lifecycle"

// Event is one lifecycle notification. Claims never appear here; only
// identifiers and outcomes.
type Event struct {
	Type         Type      `json:"type"`
	CredentialID string    `json:"credential_id"`
	CID          string    `json:"cid,omitempty"`
	NumericID    uint64    `json:"numeric_id,omitempty"`
	Issuer       string    `json:"issuer,omitempty"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Verified     *bool     `json:"verified,omitempty"`
	Reasons      []string  `json:"reasons,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []any{
		"event_type", string(event.Type),
		"credential_id", event.CredentialID,
	}
	if event.CID != "" {
		attrs = append(attrs, "cid", event.CID)
	}
	if event.NumericID != 0 {
		attrs = append(attrs, "numeric_id", event.NumericID)
	}
	if event.Verified != nil {
		attrs = append(attrs, "verified", *event.Verified, "reasons", event.Reasons)
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	p.logger.InfoContext(ctx, "credential lifecycle event", attrs...)
	return nil
}

// MessageProducer is the subset of the Kafka producer the publisher needs.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes events as JSON records keyed by credential id so a
// credential's history stays on one partition.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaPublisher(p MessageProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.CredentialID),
		Value: value,
		Headers: map[string]string{
			"event_type": string(event.Type),
		},
	})
}

// OutboxPublisher appends events to the outbox; an outbox.Relay delivers
// them to Kafka later.
type OutboxPublisher struct {
	store outbox.Store
	now   func() time.Time
}

func NewOutboxPublisher(store outbox.Store, now func() time.Time) *OutboxPublisher {
	if now == nil {
		now = time.Now
	}
	return &OutboxPublisher{store: store, now: now}
}

func (p *OutboxPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.store.Append(ctx, outbox.NewEntry(event.CredentialID, string(event.Type), value, p.now()))
}

// Multi fans an event out to several publishers, returning the first error
// after trying all of them.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
