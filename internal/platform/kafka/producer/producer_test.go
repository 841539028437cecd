package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brokers not configured")
}

func TestToRecordCopiesHeaders(t *testing.T) {
	rec := toRecord(&Message{
		Topic:   "vc.lifecycle",
		Key:     []byte("vc_1"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event_type": "credential.issued"},
	})
	assert.Equal(t, "vc.lifecycle", rec.Topic)
	assert.Equal(t, "vc_1", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, "credential.issued", string(rec.Headers[0].Value))
}

func TestClosedProducerRejects(t *testing.T) {
	p, err := New(Config{Brokers: []string{"127.0.0.1:1"}}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err = p.Produce(context.Background(), &Message{Topic: "t"})
	require.Error(t, err)
	assert.Error(t, p.Health(context.Background()))
}
