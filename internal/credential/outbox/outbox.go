// Package outbox stores lifecycle events in PostgreSQL until a relay worker
// has delivered them to Kafka, so an unreachable broker delays events
// instead of losing them.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one pending or delivered event.
type Entry struct {
	ID           uuid.UUID
	CredentialID string
	EventType    string
	Payload      []byte // JSON-encoded events.Event
	CreatedAt    time.Time
	ProcessedAt  *time.Time // nil until the relay has produced it
}

// IsPending reports whether the entry still awaits delivery.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates an entry with a fresh id.
func NewEntry(credentialID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:           uuid.New(),
		CredentialID: credentialID,
		EventType:    eventType,
		Payload:      payload,
		CreatedAt:    now,
	}
}

// Store persists outbox entries. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)

	// DeleteProcessedBefore drops delivered entries older than before and
	// returns how many went.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
