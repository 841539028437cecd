package models

import (
	"time"
)

// ExpiryPolicy decides a new credential's expirationDate. The zero value
// defers to the engine's configured default lifetime.
type ExpiryPolicy struct {
	never bool
	ttl   time.Duration
	at    time.Time
}

// NeverExpire issues credentials without an expirationDate.
func NeverExpire() ExpiryPolicy { return ExpiryPolicy{never: true} }

// ExpireAfter sets expirationDate to issuance time plus d.
func ExpireAfter(d time.Duration) ExpiryPolicy { return ExpiryPolicy{ttl: d} }

// ExpireAt sets an absolute expirationDate.
func ExpireAt(t time.Time) ExpiryPolicy { return ExpiryPolicy{at: t} }

// Resolve returns the expiry for a credential issued at issuedAt, falling
// back to defaultTTL. A nil result means the credential never expires.
func (p ExpiryPolicy) Resolve(issuedAt time.Time, defaultTTL time.Duration) *time.Time {
	var exp time.Time
	switch {
	case p.never:
		return nil
	case !p.at.IsZero():
		exp = p.at
	case p.ttl != 0:
		exp = issuedAt.Add(p.ttl)
	case defaultTTL > 0:
		exp = issuedAt.Add(defaultTTL)
	default:
		return nil
	}
	exp = exp.UTC().Truncate(time.Second)
	return &exp
}

// IssueRequest captures the data required to issue a credential. RequestID
// optionally approves a pending holder request.
type IssueRequest struct {
	SubjectID      string
	CredentialType string
	Claims         Claims
	Expiry         ExpiryPolicy
	RequestID      CredentialRequestID
}

// IssueResult is returned once a credential is signed, stored and registered.
type IssueResult struct {
	Document  Document
	CID       string
	NumericID uint64
	Receipt   Receipt
	RequestID CredentialRequestID
}

// StatusResult is the registry status annotated with the content reference
// known for the credential.
type StatusResult struct {
	CredentialID CredentialID
	Status       RegistryStatus
	CID          string
}

// IssuerInfo is the public identity material verifiers need.
type IssuerInfo struct {
	Issuer             string
	VerificationMethod string
	PublicKeyMultibase string
	PublicKeyHex       string
}
