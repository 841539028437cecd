package outbox

import (
	"context"
	"log/slog"
	"time"

	"idverse/internal/platform/kafka/producer"
)

const (
	DefaultBatchSize    = 100
	DefaultPollInterval = 250 * time.Millisecond
	DefaultRetention    = 24 * time.Hour

	drainTimeout = 10 * time.Second
)

// MessageProducer is the subset of the Kafka producer the relay needs.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

type RelayOption func(*Relay)

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithRetention sets how long delivered entries are kept. Zero keeps them.
func WithRetention(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.retention = d
	}
}

func WithMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// Relay polls the outbox and produces pending entries to Kafka. Delivery is
// at least once: an entry produced but not marked is produced again on the
// next poll, and consumers dedupe on the outbox_id header.
type Relay struct {
	store        Store
	producer     MessageProducer
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
}

func NewRelay(store Store, prod MessageProducer, topic string, opts ...RelayOption) *Relay {
	r := &Relay{
		store:        store,
		producer:     prod,
		topic:        topic,
		batchSize:    DefaultBatchSize,
		pollInterval: DefaultPollInterval,
		retention:    DefaultRetention,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start polls until ctx is done, then drains what is left with a short
// deadline of its own.
func (r *Relay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var lastPurge time.Time
	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
			if r.retention > 0 && r.now().Sub(lastPurge) >= r.retention/24 {
				r.purge(ctx)
				lastPurge = r.now()
			}
		case <-ctx.Done():
			r.logger.Info("outbox relay draining", "reason", ctx.Err())
			r.drain()
			return nil
		}
	}
}

// RunOnce delivers one batch and returns how many entries were marked.
func (r *Relay) RunOnce(ctx context.Context) int {
	entries, err := r.store.FetchUnprocessed(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to fetch outbox entries", "error", err)
		r.incFailures()
		return 0
	}
	if r.metrics != nil && len(entries) > 0 {
		r.metrics.BatchSize.Observe(float64(len(entries)))
	}

	delivered := 0
	for _, entry := range entries {
		start := time.Now()
		if err := r.producer.Produce(ctx, r.message(entry)); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			r.incFailures()
			continue
		}
		if err := r.store.MarkProcessed(ctx, entry.ID, r.now()); err != nil {
			r.logger.ErrorContext(ctx, "failed to mark outbox entry processed", "id", entry.ID, "error", err)
			continue
		}
		delivered++
		if r.metrics != nil {
			r.metrics.PublishedTotal.Inc()
			r.metrics.PublishDuration.Observe(time.Since(start).Seconds())
		}
	}

	if r.metrics != nil {
		if n, err := r.store.CountPending(ctx); err == nil {
			r.metrics.PendingDepth.Set(float64(n))
		}
	}
	return delivered
}

func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for ctx.Err() == nil {
		if r.RunOnce(ctx) == 0 {
			return
		}
	}
}

// message keys by credential id so one credential's history stays ordered
// on a single partition.
func (r *Relay) message(entry *Entry) *producer.Message {
	return &producer.Message{
		Topic: r.topic,
		Key:   []byte(entry.CredentialID),
		Value: entry.Payload,
		Headers: map[string]string{
			"event_type": entry.EventType,
			"outbox_id":  entry.ID.String(),
		},
	}
}

func (r *Relay) purge(ctx context.Context) {
	n, err := r.store.DeleteProcessedBefore(ctx, r.now().Add(-r.retention))
	if err != nil {
		r.logger.WarnContext(ctx, "failed to purge delivered outbox entries", "error", err)
		return
	}
	if n > 0 {
		r.logger.DebugContext(ctx, "purged delivered outbox entries", "count", n)
		if r.metrics != nil {
			r.metrics.Purged.Add(float64(n))
		}
	}
}

func (r *Relay) incFailures() {
	if r.metrics != nil {
		r.metrics.PublishFailures.Inc()
	}
}
