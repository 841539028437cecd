package models

import (
	"time"

	"github.com/google/uuid"
)

const requestIDPrefix = "req_"

// RequestStatus is the lifecycle state of a holder's credential request.
type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
	RequestIssued  RequestStatus = "issued"
)

// CredentialRequestID identifies a holder-initiated issuance request.
type CredentialRequestID string

func NewCredentialRequestID() CredentialRequestID {
	return CredentialRequestID(requestIDPrefix + uuid.NewString())
}

func (id CredentialRequestID) String() string { return string(id) }

// RequestIssueInput is what a holder submits when asking for a credential.
// An empty SubjectID means the authenticated caller.
type RequestIssueInput struct {
	SubjectID      string
	CredentialType string
	Claims         Claims
}

// CredentialRequest is a pending or fulfilled ask for a credential. An
// operator approves it by issuing with its id.
type CredentialRequest struct {
	ID             CredentialRequestID
	CredentialType string
	SubjectID      string
	Claims         Claims
	RequestedBy    string
	Status         RequestStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	ApprovedAt     *time.Time
	ApprovedBy     string
	CredentialID   CredentialID
}

// Expired reports whether the approval window has closed at now.
func (r CredentialRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
