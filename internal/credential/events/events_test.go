package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idverse/internal/credential/outbox"
	"idverse/internal/platform/kafka/producer"
)

type recordingProducer struct {
	msgs []*producer.Message
	err  error
}

func (r *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestKafkaPublisher(t *testing.T) {
	rec := &recordingProducer{}
	pub := NewKafkaPublisher(rec, "")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Publish(context.Background(), Event{
		Type:         TypeIssued,
		CredentialID: "vc_1",
		CID:          "bafkreiabc",
		NumericID:    3,
		OccurredAt:   at,
	})
	require.NoError(t, err)
	require.Len(t, rec.msgs, 1)

	msg := rec.msgs[0]
	assert.Equal(t, DefaultTopic, msg.Topic)
	assert.Equal(t, "vc_1", string(msg.Key))
	assert.Equal(t, "credential.issued", msg.Headers["event_type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "bafkreiabc", decoded.CID)
	assert.EqualValues(t, 3, decoded.NumericID)
	assert.True(t, at.Equal(decoded.OccurredAt))
}

func TestLogPublisherOmitsClaims(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	verified := false
	require.NoError(t, pub.Publish(context.Background(), Event{
		Type:         TypePresented,
		CredentialID: "vc_2",
		Verified:     &verified,
		Reasons:      []string{"Revoked"},
	}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "credential.presented", line["event_type"])
	assert.Equal(t, false, line["verified"])
}

func TestMultiTriesEveryPublisher(t *testing.T) {
	failing := &recordingProducer{err: errors.New("broker down")}
	ok := &recordingProducer{}
	multi := Multi{NewKafkaPublisher(failing, "a"), NewKafkaPublisher(ok, "b")}

	err := multi.Publish(context.Background(), Event{Type: TypeRevoked, CredentialID: "vc_3"})
	require.Error(t, err)
	assert.Len(t, failing.msgs, 1)
	assert.Len(t, ok.msgs, 1)
}

func TestOutboxPublisherAppendsPendingEntry(t *testing.T) {
	store := outbox.NewMemoryStore()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := NewOutboxPublisher(store, func() time.Time { return at })

	require.NoError(t, pub.Publish(context.Background(), Event{
		Type:         TypeRevoked,
		CredentialID: "vc_4",
		Reason:       "lost",
	}))

	pending, err := store.FetchUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "vc_4", pending[0].CredentialID)
	assert.Equal(t, "credential.revoked", pending[0].EventType)
	assert.True(t, at.Equal(pending[0].CreatedAt))

	var decoded Event
	require.NoError(t, json.Unmarshal(pending[0].Payload, &decoded))
	assert.Equal(t, "lost", decoded.Reason)
}
