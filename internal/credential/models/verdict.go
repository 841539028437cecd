package models

import (
	"encoding/json"
	"time"
)

// Reason names why a presentation check failed.
type Reason string

const (
	ReasonNotFound           Reason = "NotFound"
	ReasonMalformedDocument  Reason = "MalformedDocument"
	ReasonInvalidType        Reason = "InvalidType"
	ReasonExpired            Reason = "Expired"
	ReasonSignatureInvalid   Reason = "SignatureInvalid"
	ReasonUnregistered       Reason = "Unregistered"
	ReasonRevoked            Reason = "Revoked"
	ReasonStatusUnavailable  Reason = "StatusUnavailable"
	ReasonStorageUnavailable Reason = "StorageUnavailable"
	ReasonDisclosureMismatch Reason = "DisclosureMismatch"
	ReasonChallengeInvalid   Reason = "ChallengeInvalid"
)

// Checks itemizes each presentation check.
type Checks struct {
	TypeOK       bool
	NotExpired   bool
	SignatureOK  bool
	Active       bool
	DisclosureOK bool
	ChallengeOK  bool
}

// Passed is the combined outcome of all checks.
func (c Checks) Passed() bool {
	return c.TypeOK && c.NotExpired && c.SignatureOK && c.Active && c.DisclosureOK && c.ChallengeOK
}

// Verdict is the outcome of a presentation. A failed verification is a
// Verdict with Verified=false, never an error.
type Verdict struct {
	Verified     bool
	CredentialID CredentialID
	CID          string
	Checks       Checks
	Reasons      []Reason
	Status       RegistryStatus
	Document     *Document
	CheckedAt    time.Time
}

// Fail records a reason. Reasons keep insertion order and are not repeated.
func (v *Verdict) Fail(r Reason) {
	for _, have := range v.Reasons {
		if have == r {
			return
		}
	}
	v.Reasons = append(v.Reasons, r)
}

// HasReason reports whether r was recorded.
func (v *Verdict) HasReason(r Reason) bool {
	for _, have := range v.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// CredentialRef identifies what is being presented: the full document, a
// CID, or an application id. Resolution precedence follows that order.
type CredentialRef struct {
	Document json.RawMessage
	CID      string
	ID       string
}

// IsZero reports whether no reference was supplied.
func (r CredentialRef) IsZero() bool {
	return len(r.Document) == 0 && r.CID == "" && r.ID == ""
}

// PresentRequest is the input to a presentation.
type PresentRequest struct {
	Credential CredentialRef
	// Disclosed, when non-nil, is the subset of subject claims the holder
	// chose to reveal.
	Disclosed map[string]any
	// Challenge, when non-empty, must be a live token from the challenge issuer.
	Challenge string
}

// Challenge is a single-use presentation nonce.
type Challenge struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its expiry at now.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
