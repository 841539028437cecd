package service

import (
	"context"
	"crypto/ed25519"
	"strings"
	"sync"

	"idverse/internal/credential/signing"
	dErrors "idverse/pkg/domain-errors"
)

// SignerKeyResolver resolves only the engine's own verification method.
type SignerKeyResolver struct {
	signer Signer
}

func NewSignerKeyResolver(signer Signer) *SignerKeyResolver {
	return &SignerKeyResolver{signer: signer}
}

func (r *SignerKeyResolver) ResolveKey(_ context.Context, issuer, verificationMethod string) (ed25519.PublicKey, error) {
	if issuer != r.signer.IssuerID() || verificationMethod != r.signer.VerificationMethod() {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown verification method")
	}
	return r.signer.PublicKey(), nil
}

// StaticKeyResolver maps issuer DIDs to known multibase public keys. Any
// verification method under a known DID resolves to that DID's key.
type StaticKeyResolver struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey
}

func NewStaticKeyResolver() *StaticKeyResolver {
	return &StaticKeyResolver{keys: make(map[string]ed25519.PublicKey)}
}

// Add registers the multibase encoded key for issuer.
func (r *StaticKeyResolver) Add(issuer, publicKeyMultibase string) error {
	key, err := signing.DecodePublicKey(publicKeyMultibase)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid issuer public key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[issuer] = key
	return nil
}

func (r *StaticKeyResolver) ResolveKey(_ context.Context, issuer, verificationMethod string) (ed25519.PublicKey, error) {
	if did, _, ok := strings.Cut(verificationMethod, "#"); ok && did != issuer {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification method does not belong to issuer")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[issuer]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown issuer")
	}
	return key, nil
}
