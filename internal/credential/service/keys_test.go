package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idverse/internal/credential/signing"
	dErrors "idverse/pkg/domain-errors"
)

func TestStaticKeyResolver(t *testing.T) {
	ctx := context.Background()
	handle, err := signing.GenerateOrLoadKeypair(ctx, signing.NewMemoryKeyStore(), "did:example:acme")
	require.NoError(t, err)
	signer := signing.New(handle)

	r := NewStaticKeyResolver()
	require.NoError(t, r.Add("did:example:acme", signer.PublicKeyMultibase()))

	key, err := r.ResolveKey(ctx, "did:example:acme", signer.VerificationMethod())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), key)

	_, err = r.ResolveKey(ctx, "did:example:acme", "did:example:mallory#key-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = r.ResolveKey(ctx, "did:example:unknown", "did:example:unknown#key-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = r.Add("did:example:bad", "!invalid")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSignerKeyResolver(t *testing.T) {
	ctx := context.Background()
	handle, err := signing.GenerateOrLoadKeypair(ctx, signing.NewMemoryKeyStore(), "did:example:acme")
	require.NoError(t, err)
	signer := signing.New(handle)
	r := NewSignerKeyResolver(signer)

	key, err := r.ResolveKey(ctx, signer.IssuerID(), signer.VerificationMethod())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), key)

	_, err = r.ResolveKey(ctx, "did:example:other", signer.VerificationMethod())
	assert.Error(t, err)
}
