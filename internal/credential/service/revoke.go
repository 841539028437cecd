package service

import (
	"context"
	"strings"
	"time"

	"idverse/internal/credential/events"
	"idverse/internal/credential/models"
	"idverse/internal/credential/tracer"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/requestcontext"
)

// Revoke marks a credential revoked. A second revocation fails with
// CodeAlreadyRevoked; unknown ids fail with CodeNotFound.
func (s *Service) Revoke(ctx context.Context, id, reason string) (receipt *models.Receipt, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.revoke", tracer.String("credential_id", id))
	defer func() {
		span.End(err)
		s.observe("revoke", start)
	}()

	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "credential_id is required")
	}

	ref, err := s.revocationRef(ctx, id)
	if err != nil {
		s.metrics.IncBackendError("registry")
		return nil, err
	}

	r, err := s.registry.Revoke(ctx, ref, strings.TrimSpace(reason))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRegistryUnavailable) {
			s.metrics.IncBackendError("registry")
		}
		s.logger.WarnContext(ctx, "credential revocation rejected",
			"error", err,
			"credential_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	s.metrics.IncRevoked()
	s.publish(ctx, events.Event{
		Type:         events.TypeRevoked,
		CredentialID: string(r.ApplicationID),
		NumericID:    r.NumericID,
		Issuer:       s.signer.IssuerID(),
		TxHash:       r.TxHash,
		Reason:       r.Reason,
	})
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", r.ApplicationID,
		"numeric_id", r.NumericID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &r, nil
}

// revocationRef prefers the numeric id: first from the metadata store, then
// from the registry's own index, falling back to the application id.
func (s *Service) revocationRef(ctx context.Context, id string) (models.RegistryRef, error) {
	if parsed := models.ParseRegistryRef(id); parsed.IsNumeric() {
		return parsed, nil
	}
	candidates := models.LookupCandidates(id)
	for _, candidate := range candidates {
		if s.metadata != nil {
			if record, err := s.metadata.FindByID(ctx, candidate); err == nil && record.NumericID != 0 {
				return models.ByNumericID(record.NumericID), nil
			}
		}
		n, found, err := s.registry.ResolveNumericID(ctx, candidate)
		if err != nil {
			return models.RegistryRef{}, err
		}
		if found {
			return models.ByNumericID(n), nil
		}
	}
	return models.ByApplicationID(candidates[0]), nil
}

// Status reports the registry state of a credential, annotated with its
// content reference. Unknown ids report Registered=false without error.
func (s *Service) Status(ctx context.Context, id string) (*models.StatusResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "credential_id is required")
	}

	if parsed := models.ParseRegistryRef(id); parsed.IsNumeric() {
		status, err := s.registry.Status(ctx, parsed)
		if err != nil {
			s.metrics.IncBackendError("registry")
			return nil, err
		}
		return s.statusResult(ctx, "", status), nil
	}

	candidates := models.LookupCandidates(id)
	for _, candidate := range candidates {
		status, err := s.registry.Status(ctx, models.ByApplicationID(candidate))
		if err != nil {
			s.metrics.IncBackendError("registry")
			return nil, err
		}
		if status.Registered {
			return s.statusResult(ctx, candidate, status), nil
		}
	}
	return &models.StatusResult{CredentialID: candidates[0]}, nil
}

func (s *Service) statusResult(ctx context.Context, id models.CredentialID, status models.RegistryStatus) *models.StatusResult {
	out := &models.StatusResult{CredentialID: id, Status: status}
	if status.Record == nil {
		return out
	}
	out.CredentialID = status.Record.ApplicationID
	out.CID = status.Record.ContentRef
	if out.CID == "" && s.metadata != nil {
		if record, err := s.metadata.FindByID(ctx, out.CredentialID); err == nil {
			out.CID = record.CID
		}
	}
	return out
}
