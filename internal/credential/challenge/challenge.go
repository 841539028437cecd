// Package challenge issues single-use presentation nonces.
package challenge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
)

const (
	// DefaultTTL is how long an issued challenge stays consumable.
	DefaultTTL = 5 * time.Minute
	tokenBytes = 32
)

// Store keeps outstanding challenges.
type Store interface {
	// Save records c; ttl is the lifetime remaining at save time.
	Save(ctx context.Context, c models.Challenge, ttl time.Duration) error
	// Take atomically removes the token and reports whether it was present
	// and unexpired at now.
	Take(ctx context.Context, token string, now time.Time) (bool, error)
	// Purge drops every challenge that expired before now.
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Issuer mints and consumes challenges.
type Issuer struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Issuer.
type Option func(*Issuer)

func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func NewIssuer(store Store, opts ...Option) *Issuer {
	i := &Issuer{store: store, ttl: DefaultTTL, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured challenge lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a fresh token and sweeps expired ones.
func (i *Issuer) Issue(ctx context.Context) (models.Challenge, error) {
	now := i.now()
	if purged, err := i.store.Purge(ctx, now); err != nil {
		i.logger.WarnContext(ctx, "challenge purge failed", "error", err)
	} else if purged > 0 {
		i.logger.DebugContext(ctx, "purged expired challenges", "count", purged)
	}

	token, err := newToken()
	if err != nil {
		return models.Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate challenge")
	}
	c := models.Challenge{Token: token, ExpiresAt: now.Add(i.ttl).UTC()}
	if err := i.store.Save(ctx, c, i.ttl); err != nil {
		return models.Challenge{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "save challenge")
	}
	i.logger.DebugContext(ctx, "challenge issued", "token", Fingerprint(token), "expires_at", c.ExpiresAt)
	return c, nil
}

// Consume succeeds exactly once for a live token. Unknown, expired and
// already consumed tokens return false without error.
func (i *Issuer) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := i.store.Take(ctx, token, i.now())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "consume challenge")
	}
	i.logger.DebugContext(ctx, "challenge consumed", "token", Fingerprint(token), "valid", ok)
	return ok, nil
}

// Fingerprint identifies a token in logs without revealing it.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
