package models

import (
	"strconv"
	"strings"
	"time"
)

// RegistryState is the lifecycle position of a credential in the registry.
type RegistryState string

const (
	StateUnregistered RegistryState = "unregistered"
	StateRegistered   RegistryState = "registered"
	StateRevoked      RegistryState = "revoked"
)

// RegistryRecord is the registry's view of one issued credential.
type RegistryRecord struct {
	ApplicationID    CredentialID
	NumericID        uint64
	ContentRef       string
	Issuer           string
	IssuedAt         time.Time
	ExpiresAt        *time.Time
	Revoked          bool
	RevokedAt        *time.Time
	RevocationReason string
}

// State derives the lifecycle state from the record.
func (r *RegistryRecord) State() RegistryState {
	if r == nil {
		return StateUnregistered
	}
	if r.Revoked {
		return StateRevoked
	}
	return StateRegistered
}

// RegistryRef addresses a registry record by application id or numeric id.
// Exactly one of the two is set.
type RegistryRef struct {
	ApplicationID CredentialID
	NumericID     uint64
}

// ByApplicationID builds a ref for an application-level id.
func ByApplicationID(id CredentialID) RegistryRef {
	return RegistryRef{ApplicationID: id}
}

// ByNumericID builds a ref for a registry-assigned numeric id.
func ByNumericID(n uint64) RegistryRef {
	return RegistryRef{NumericID: n}
}

// ParseRegistryRef treats all-digit input as a numeric id and anything else
// as an application id.
func ParseRegistryRef(s string) RegistryRef {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && n > 0 {
		return ByNumericID(n)
	}
	return ByApplicationID(CredentialID(s))
}

// IsNumeric reports whether the ref addresses a numeric id.
func (r RegistryRef) IsNumeric() bool {
	return r.NumericID != 0
}

func (r RegistryRef) String() string {
	if r.IsNumeric() {
		return strconv.FormatUint(r.NumericID, 10)
	}
	return string(r.ApplicationID)
}

// RegisterInput carries the fields recorded on registration.
type RegisterInput struct {
	ApplicationID CredentialID
	ContentRef    string
	Issuer        string
	IssuedAt      time.Time
	ExpiresAt     *time.Time
}

// RegistryStatus is a point-in-time status snapshot. Unknown ids report
// Registered=false with a nil Record.
type RegistryStatus struct {
	Registered bool
	Revoked    bool
	Record     *RegistryRecord
}

// Active reports registered and not revoked.
func (s RegistryStatus) Active() bool {
	return s.Registered && !s.Revoked
}

// Operation names the registry transition a receipt acknowledges.
type Operation string

const (
	OperationRegister Operation = "register"
	OperationRevoke   Operation = "revoke"
)

// Receipt acknowledges a registry state change.
type Receipt struct {
	TxHash        string
	Operation     Operation
	ApplicationID CredentialID
	NumericID     uint64
	At            time.Time
	Reason        string
}
