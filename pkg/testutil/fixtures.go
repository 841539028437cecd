package testutil

import (
	"sync"
	"time"

	"idverse/internal/credential/models"
)

// FixedNow is the reference instant used by deterministic tests.
var FixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock is a settable clock for injecting into components under test. It is
// safe to read from server goroutines while a test advances it.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// DocumentBuilder builds unsigned credential documents.
type DocumentBuilder struct {
	doc models.Document
}

// NewDocumentBuilder starts from a one-year GovID credential for alice.
func NewDocumentBuilder() *DocumentBuilder {
	exp := FixedNow.AddDate(1, 0, 0)
	return &DocumentBuilder{doc: models.Document{
		Context:   []string{models.ContextCredentialsV1},
		Types:     []string{models.TypeVerifiableCredential, "GovID"},
		ID:        models.NewCredentialID(),
		Issuer:    models.DefaultIssuer,
		Subject:   map[string]any{models.SubjectIDKey: "did:example:alice", "age": 30},
		IssuedAt:  FixedNow,
		ExpiresAt: &exp,
	}}
}

func (b *DocumentBuilder) WithID(id models.CredentialID) *DocumentBuilder {
	b.doc.ID = id
	return b
}

func (b *DocumentBuilder) WithIssuer(issuer string) *DocumentBuilder {
	b.doc.Issuer = issuer
	return b
}

func (b *DocumentBuilder) WithTypes(types ...string) *DocumentBuilder {
	b.doc.Types = types
	return b
}

func (b *DocumentBuilder) WithClaim(key string, value any) *DocumentBuilder {
	b.doc.Subject[key] = value
	return b
}

func (b *DocumentBuilder) WithExpiry(t *time.Time) *DocumentBuilder {
	b.doc.ExpiresAt = t
	return b
}

func (b *DocumentBuilder) Build() models.Document {
	doc := b.doc
	subject := make(map[string]any, len(doc.Subject))
	for k, v := range doc.Subject {
		subject[k] = v
	}
	doc.Subject = subject
	return doc
}
