// Package contentstore stores canonical credential bytes keyed by their CID.
package contentstore

import (
	"context"
	"log/slog"

	"github.com/ipfs/go-cid"

	"idverse/pkg/canonical"
	dErrors "idverse/pkg/domain-errors"
)

var (
	// ErrNotFound is returned when no content is stored under a CID.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "content not found")
	// ErrUnavailable is returned when a backend cannot be reached.
	ErrUnavailable = dErrors.New(dErrors.CodeStorageUnavailable, "content store unavailable")
)

// Backend persists opaque blocks. Implementations must be safe for
// concurrent use and treat a repeated Write of the same CID as a no-op.
type Backend interface {
	Write(ctx context.Context, id cid.Cid, data []byte) error
	Read(ctx context.Context, id cid.Cid) ([]byte, error)
	// Pin marks id as retained. It returns false when id is unknown.
	Pin(ctx context.Context, id cid.Cid) (bool, error)
}

// Store canonicalizes documents and addresses them by content.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put canonicalizes document, stores it and returns its CID. Storing the
// same logical document again returns the same CID.
func (s *Store) Put(ctx context.Context, document any) (string, error) {
	data, err := canonical.Marshal(document)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeMalformedDocument, "document cannot be canonicalized")
	}
	id, err := ComputeCID(data)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive content identifier")
	}
	if err := s.backend.Write(ctx, id, data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to store content")
	}
	return id.String(), nil
}

// Get returns the canonical bytes stored under cidStr. Content whose hash no
// longer matches its CID is never returned.
func (s *Store) Get(ctx context.Context, cidStr string) ([]byte, error) {
	id, err := ParseCID(cidStr)
	if err != nil {
		return nil, err
	}
	data, err := s.backend.Read(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to read content")
	}
	if !matches(id, data) {
		s.logger.ErrorContext(ctx, "stored content does not match its cid", "cid", cidStr)
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "content integrity check failed")
	}
	return data, nil
}

// Pin reports whether cidStr is known, pinning it if so.
func (s *Store) Pin(ctx context.Context, cidStr string) (bool, error) {
	id, err := ParseCID(cidStr)
	if err != nil {
		return false, nil
	}
	ok, err := s.backend.Pin(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to pin content")
	}
	return ok, nil
}
