package signing

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/multiformats/go-multibase"

	dErrors "idverse/pkg/domain-errors"
)

var (
	// ErrKeyNotFound is returned by KeyStore.Load when no key is persisted.
	ErrKeyNotFound = dErrors.New(dErrors.CodeNotFound, "issuer key not found")
	// ErrKeyExists is returned by KeyStore.Save when a key is already persisted.
	ErrKeyExists = dErrors.New(dErrors.CodeConflict, "issuer key already exists")
)

// KeyStore persists issuer private keys. Implementations never overwrite an
// existing key.
type KeyStore interface {
	Load(ctx context.Context, issuerID string) (ed25519.PrivateKey, error)
	Save(ctx context.Context, issuerID string, key ed25519.PrivateKey) error
}

// FileKeyStore keeps one key file per issuer under a directory. The file holds
// the 32-byte seed, multibase encoded.
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore creates the directory if needed.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if dir == "" {
		return nil, errors.New("key directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	return &FileKeyStore{dir: dir}, nil
}

// Path returns the key file location for issuerID.
func (s *FileKeyStore) Path(issuerID string) string {
	return filepath.Join(s.dir, keyFileName(issuerID))
}

func (s *FileKeyStore) Load(_ context.Context, issuerID string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(s.Path(issuerID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read issuer key: %w", err)
	}
	return decodeKey(strings.TrimSpace(string(data)))
}

func (s *FileKeyStore) Save(_ context.Context, issuerID string, key ed25519.PrivateKey) error {
	encoded, err := encodeKey(key)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path(issuerID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("create issuer key: %w", err)
	}
	if _, err := f.WriteString(encoded + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write issuer key: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync issuer key: %w", err)
	}
	return f.Close()
}

// MemoryKeyStore keeps keys for the life of the process.
type MemoryKeyStore struct {
	mu   sync.Mutex
	keys map[string]ed25519.PrivateKey
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]ed25519.PrivateKey)}
}

func (s *MemoryKeyStore) Load(_ context.Context, issuerID string) (ed25519.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[issuerID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append(ed25519.PrivateKey(nil), key...), nil
}

func (s *MemoryKeyStore) Save(_ context.Context, issuerID string, key ed25519.PrivateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[issuerID]; ok {
		return ErrKeyExists
	}
	s.keys[issuerID] = append(ed25519.PrivateKey(nil), key...)
	return nil
}

// keyFileName keeps a readable, path-safe prefix of issuerID and appends a
// digest of the full id so that ids differing only in replaced characters
// get distinct files.
func keyFileName(issuerID string) string {
	sum := sha256.Sum256([]byte(issuerID))
	var b strings.Builder
	for _, r := range issuerID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + "-" + hex.EncodeToString(sum[:8]) + ".key"
}

func encodeKey(key ed25519.PrivateKey) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", errors.New("invalid ed25519 private key length")
	}
	return multibase.Encode(multibase.Base58BTC, key.Seed())
}

func decodeKey(encoded string) (ed25519.PrivateKey, error) {
	_, raw, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode issuer key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("decode issuer key: unexpected length %d", len(raw))
	}
}
