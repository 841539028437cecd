// Package registry tracks registration and revocation state of issued
// credentials. A record moves Unregistered -> Registered -> Revoked and never
// back.
package registry

import (
	"context"
	"encoding/binary"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
)

var (
	ErrNotFound              = dErrors.New(dErrors.CodeNotFound, "credential not registered")
	ErrAlreadyRevoked        = dErrors.New(dErrors.CodeAlreadyRevoked, "credential already revoked")
	ErrDuplicateRegistration = dErrors.New(dErrors.CodeDuplicateRegistration, "credential id already registered with different content")
)

// Registry is the capability every registry backend provides.
type Registry interface {
	// Register records a new credential and assigns the next numeric id.
	// Registering the same application id and content again returns the
	// original receipt.
	Register(ctx context.Context, in models.RegisterInput) (models.Receipt, error)
	// Revoke moves a registered credential to revoked.
	Revoke(ctx context.Context, ref models.RegistryRef, reason string) (models.Receipt, error)
	// Status never fails for unknown ids; it reports Registered=false.
	Status(ctx context.Context, ref models.RegistryRef) (models.RegistryStatus, error)
	ResolveNumericID(ctx context.Context, appID models.CredentialID) (uint64, bool, error)
	ResolveApplicationID(ctx context.Context, numericID uint64) (models.CredentialID, bool, error)
}

func validateRegister(in models.RegisterInput) error {
	if strings.TrimSpace(string(in.ApplicationID)) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "application id is required")
	}
	if strings.TrimSpace(in.ContentRef) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "content reference is required")
	}
	if in.IssuedAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "issued at is required")
	}
	return nil
}

func validateRef(ref models.RegistryRef) error {
	if !ref.IsNumeric() && strings.TrimSpace(string(ref.ApplicationID)) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "credential reference is required")
	}
	return nil
}

// receiptHash derives a transaction-style 0x-prefixed Keccak-256 digest for
// a state transition.
func receiptHash(op models.Operation, appID models.CredentialID, numericID uint64, detail string, at time.Time) string {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], numericID)
	return crypto.Keccak256Hash(
		[]byte(op),
		[]byte(appID),
		n[:],
		[]byte(detail),
		[]byte(at.UTC().Format(time.RFC3339Nano)),
	).Hex()
}
