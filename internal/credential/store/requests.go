package store

import (
	"context"
	"time"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
)

var (
	ErrRequestNotFound = dErrors.New(dErrors.CodeNotFound, "credential request not found")
	// ErrRequestNotPending is returned when approving a request that was
	// already fulfilled.
	ErrRequestNotPending = dErrors.New(dErrors.CodeConflict, "credential request is no longer pending")
)

// RequestStore keeps holder-initiated credential requests.
type RequestStore interface {
	SaveRequest(ctx context.Context, req models.CredentialRequest) error
	FindRequest(ctx context.Context, id models.CredentialRequestID) (models.CredentialRequest, error)
	// MarkRequestIssued moves a pending request to issued. Only one caller
	// wins; the rest get ErrRequestNotPending.
	MarkRequestIssued(ctx context.Context, id models.CredentialRequestID, credentialID models.CredentialID, approvedBy string, at time.Time) error
}
