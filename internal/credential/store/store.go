// Package store keeps bookkeeping for issued credentials: which CID and
// numeric registry id belong to an application id.
package store

import (
	"context"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "credential record not found")
)

type Store interface {
	Save(ctx context.Context, record models.CredentialRecord) error
	FindByID(ctx context.Context, id models.CredentialID) (models.CredentialRecord, error)
	FindByCID(ctx context.Context, cid string) (models.CredentialRecord, error)
	// ListBySubject returns the subject's credentials, newest first.
	ListBySubject(ctx context.Context, subjectID string) ([]models.CredentialRecord, error)
}
