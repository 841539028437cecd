// Package signing owns issuer key material and produces and checks Ed25519
// proofs over canonical credential bytes.
package signing

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/multiformats/go-multibase"

	"idverse/internal/credential/models"
	"idverse/pkg/canonical"
)

const keyFragment = "#key-1"

// KeyHandle holds an issuer keypair. The private half is unexported and never
// leaves this package.
type KeyHandle struct {
	issuerID  string
	private   ed25519.PrivateKey
	public    ed25519.PublicKey
	generated bool
}

func (h *KeyHandle) IssuerID() string { return h.issuerID }

func (h *KeyHandle) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), h.public...)
}

// Generated reports whether the key was created by this load rather than
// read from the store.
func (h *KeyHandle) Generated() bool { return h.generated }

// LogValue keeps key material out of logs.
func (h *KeyHandle) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer", h.issuerID),
		slog.String("public_key", hex.EncodeToString(h.public)),
	)
}

func (h *KeyHandle) String() string {
	return fmt.Sprintf("KeyHandle(%s)", h.issuerID)
}

// GenerateOrLoadKeypair returns the persisted key for issuerID, generating
// and persisting one first if none exists. Concurrent callers converge on the
// same key.
func GenerateOrLoadKeypair(ctx context.Context, store KeyStore, issuerID string) (*KeyHandle, error) {
	if issuerID == "" {
		return nil, errors.New("issuer id is required")
	}
	key, err := store.Load(ctx, issuerID)
	if err == nil {
		return newHandle(issuerID, key, false), nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	_, key, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate issuer key: %w", err)
	}
	switch err := store.Save(ctx, issuerID, key); {
	case err == nil:
		return newHandle(issuerID, key, true), nil
	case errors.Is(err, ErrKeyExists):
		key, err = store.Load(ctx, issuerID)
		if err != nil {
			return nil, err
		}
		return newHandle(issuerID, key, false), nil
	default:
		return nil, err
	}
}

func newHandle(issuerID string, key ed25519.PrivateKey, generated bool) *KeyHandle {
	return &KeyHandle{
		issuerID:  issuerID,
		private:   key,
		public:    key.Public().(ed25519.PublicKey),
		generated: generated,
	}
}

// Signer signs credential documents with one issuer key.
type Signer struct {
	key *KeyHandle
	now func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the proof creation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

func New(key *KeyHandle, opts ...Option) *Signer {
	s := &Signer{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) IssuerID() string { return s.key.issuerID }

func (s *Signer) PublicKey() ed25519.PublicKey { return s.key.PublicKey() }

// PublicKeyMultibase is the base58btc multibase form of the public key.
func (s *Signer) PublicKeyMultibase() string {
	encoded, _ := multibase.Encode(multibase.Base58BTC, s.key.public)
	return encoded
}

// VerificationMethod is the key reference placed in proofs.
func (s *Signer) VerificationMethod() string {
	return s.key.issuerID + keyFragment
}

// Sign canonicalizes document without its proof and returns a proof over
// those bytes. document may be a models.Document or raw JSON.
func (s *Signer) Sign(document any) (models.Proof, error) {
	payload, err := canonical.MarshalWithout(document, "proof")
	if err != nil {
		return models.Proof{}, fmt.Errorf("sign: %w", err)
	}
	sig := ed25519.Sign(s.key.private, payload)
	value, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return models.Proof{}, fmt.Errorf("sign: encode signature: %w", err)
	}
	return models.Proof{
		Type:               models.ProofTypeEd25519,
		Created:            s.now().UTC().Truncate(time.Second),
		VerificationMethod: s.VerificationMethod(),
		ProofPurpose:       models.ProofPurposeAssertion,
		ProofValue:         value,
	}, nil
}

// Verify checks proof against publicKey.
func (s *Signer) Verify(document any, proof models.Proof, publicKey ed25519.PublicKey) bool {
	return Verify(document, proof, publicKey)
}

// Verify recomputes the canonical bytes of document without its proof and
// checks the proof signature. Malformed proofs and keys yield false.
func Verify(document any, proof models.Proof, publicKey ed25519.PublicKey) bool {
	if proof.Type != models.ProofTypeEd25519 || len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	_, sig, err := multibase.Decode(proof.ProofValue)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	payload, err := canonical.MarshalWithout(document, "proof")
	if err != nil {
		return false
	}
	return ed25519.Verify(publicKey, payload, sig)
}

// DecodePublicKey parses a multibase encoded Ed25519 public key.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	_, raw, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("decode public key: unexpected length %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
