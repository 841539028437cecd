package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"idverse/internal/credential/events"
	"idverse/internal/credential/models"
	"idverse/internal/credential/tracer"
	"idverse/pkg/canonical"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/requestcontext"
)

// Issue builds, signs, stores and registers a credential. Any failure before
// registration completes aborts issuance. Metadata, request bookkeeping and
// event delivery after registration are best-effort. With a RequestID the
// pending credential request supplies any type, subject or claims left empty.
func (s *Service) Issue(ctx context.Context, req models.IssueRequest) (result *models.IssueResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.issue", tracer.String("credential_type", req.CredentialType))
	defer func() {
		span.End(err)
		s.observe("issue", start)
	}()

	issuedAt := s.now(ctx).UTC().Truncate(time.Second)
	if req.RequestID != "" {
		span.SetAttributes(tracer.String("credential_request_id", string(req.RequestID)))
		pending, perr := s.pendingRequest(ctx, req.RequestID, issuedAt)
		if perr != nil {
			return nil, perr
		}
		if req, err = applyRequest(req, pending); err != nil {
			return nil, err
		}
	}
	if err = validateIssue(req); err != nil {
		return nil, err
	}

	doc := models.Document{
		Context:   []string{models.ContextCredentialsV1},
		Types:     []string{models.TypeVerifiableCredential, req.CredentialType},
		ID:        models.NewCredentialID(),
		Issuer:    s.signer.IssuerID(),
		Subject:   buildSubject(req),
		IssuedAt:  issuedAt,
		ExpiresAt: req.Expiry.Resolve(issuedAt, s.defaultTTL),
	}
	if doc.ExpiresAt != nil && !doc.ExpiresAt.After(issuedAt) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiry must be after issuance")
	}
	span.SetAttributes(tracer.String("credential_id", string(doc.ID)))

	proof, err := s.signer.Sign(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}
	doc.Proof = &proof

	cid, err := s.contents.Put(ctx, doc)
	if err != nil {
		s.metrics.IncBackendError("content")
		return nil, err
	}
	pinned, err := s.contents.Pin(ctx, cid)
	if err != nil {
		s.metrics.IncBackendError("content")
		return nil, err
	}
	if !pinned {
		return nil, dErrors.New(dErrors.CodeStorageUnavailable, "stored credential could not be pinned")
	}

	receipt, err := s.registry.Register(ctx, models.RegisterInput{
		ApplicationID: doc.ID,
		ContentRef:    cid,
		Issuer:        doc.Issuer,
		IssuedAt:      doc.IssuedAt,
		ExpiresAt:     doc.ExpiresAt,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRegistryUnavailable) {
			s.metrics.IncBackendError("registry")
		}
		return nil, err
	}

	if req.RequestID != "" {
		s.completeRequest(ctx, req.RequestID, doc.ID, issuedAt)
	}
	s.saveMetadata(ctx, models.CredentialRecord{
		ID:        doc.ID,
		Type:      req.CredentialType,
		SubjectID: doc.SubjectID(),
		Issuer:    doc.Issuer,
		CID:       cid,
		NumericID: receipt.NumericID,
		IssuedAt:  doc.IssuedAt,
		ExpiresAt: doc.ExpiresAt,
	})
	s.publish(ctx, events.Event{
		Type:         events.TypeIssued,
		CredentialID: string(doc.ID),
		CID:          cid,
		NumericID:    receipt.NumericID,
		Issuer:       doc.Issuer,
		TxHash:       receipt.TxHash,
	})
	s.metrics.IncIssued(req.CredentialType)

	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", doc.ID,
		"credential_type", req.CredentialType,
		"cid", cid,
		"numeric_id", receipt.NumericID,
		"credential_request_id", req.RequestID,
		"request_id", requestcontext.RequestID(ctx),
	)

	return &models.IssueResult{
		Document:  doc,
		CID:       cid,
		NumericID: receipt.NumericID,
		Receipt:   receipt,
		RequestID: req.RequestID,
	}, nil
}

func validateIssue(req models.IssueRequest) error {
	if strings.TrimSpace(req.SubjectID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	credType := strings.TrimSpace(req.CredentialType)
	if credType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "credential_type is required")
	}
	if credType == models.TypeVerifiableCredential {
		return dErrors.New(dErrors.CodeInvalidInput, "credential_type must name a specific credential type")
	}
	if _, ok := req.Claims[models.SubjectIDKey]; ok {
		return dErrors.New(dErrors.CodeInvalidInput, "claims must not contain the reserved key id")
	}
	if _, err := canonical.Marshal(req.Claims); err != nil {
		if errors.Is(err, canonical.ErrInexactNumber) {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "claims contain a number that is not exactly representable; send it as a string")
		}
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "claims must be JSON-encodable")
	}
	return nil
}

// buildSubject merges the claims with the subject DID under the id key.
func buildSubject(req models.IssueRequest) map[string]any {
	subject := make(map[string]any, len(req.Claims)+1)
	for k, v := range req.Claims {
		subject[k] = v
	}
	subject[models.SubjectIDKey] = models.SubjectDID(strings.TrimSpace(req.SubjectID))
	return subject
}

func (s *Service) saveMetadata(ctx context.Context, record models.CredentialRecord) {
	if s.metadata == nil {
		return
	}
	if err := s.metadata.Save(ctx, record); err != nil {
		s.metrics.IncBackendError("metadata")
		s.logger.WarnContext(ctx, "failed to persist credential metadata",
			"error", err,
			"credential_id", record.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
