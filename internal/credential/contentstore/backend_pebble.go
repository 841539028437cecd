package contentstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ipfs/go-cid"
)

const (
	blobPrefix = "blob/"
	pinPrefix  = "pin/"

	pebbleCacheSize = 32 << 20
)

// PebbleBackend is a durable single-node block store.
type PebbleBackend struct {
	db *pebble.DB
}

// OpenPebble opens or creates a block store at dir. Pass opts to override
// defaults, e.g. an in-memory vfs in tests.
func OpenPebble(dir string, opts *pebble.Options) (*PebbleBackend, error) {
	if opts == nil {
		c := pebble.NewCache(pebbleCacheSize)
		defer c.Unref()
		opts = &pebble.Options{Cache: c}
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func (p *PebbleBackend) Close() error {
	return p.db.Close()
}

func (p *PebbleBackend) Write(ctx context.Context, id cid.Cid, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.db.Set(blobKey(id), data, pebble.Sync); err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Read(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, closer, err := p.db.Get(blobKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read block: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

func (p *PebbleBackend) Pin(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, closer, err := p.db.Get(blobKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pin block: %w", err)
	}
	_ = closer.Close()
	if err := p.db.Set(pinKey(id), nil, pebble.Sync); err != nil {
		return false, fmt.Errorf("pin block: %w", err)
	}
	return true, nil
}

// Pinned reports whether id has a pin marker.
func (p *PebbleBackend) Pinned(id cid.Cid) (bool, error) {
	_, closer, err := p.db.Get(pinKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func blobKey(id cid.Cid) []byte { return []byte(blobPrefix + id.String()) }
func pinKey(id cid.Cid) []byte  { return []byte(pinPrefix + id.String()) }
