package service

import (
	"context"
	"encoding/json"
	"time"

	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/events"
	"idverse/internal/credential/models"
	"idverse/internal/credential/schema"
	"idverse/internal/credential/signing"
	"idverse/internal/credential/tracer"
	"idverse/pkg/canonical"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/requestcontext"
)

// Present verifies a presented credential and returns an itemized verdict.
// Verification failures are reported in the verdict, never as errors; the
// only error is a request with no credential reference at all.
func (s *Service) Present(ctx context.Context, req models.PresentRequest) (verdict *models.Verdict, err error) {
	if req.Credential.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential, cid or credential_id is required")
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.present")
	defer func() {
		if verdict != nil {
			span.SetAttributes(tracer.Bool("verified", verdict.Verified))
		}
		span.End(err)
		s.observe("present", start)
	}()

	verdict = &models.Verdict{CheckedAt: s.now(ctx)}
	signed, reason := s.resolve(ctx, req.Credential, verdict)
	if reason != "" {
		verdict.Fail(reason)
		s.finishPresentation(ctx, verdict)
		return verdict, nil
	}

	doc := signed.Document
	verdict.CredentialID = doc.ID
	verdict.Document = &doc

	verdict.Checks.TypeOK = doc.HasType(models.TypeVerifiableCredential)
	if !verdict.Checks.TypeOK {
		verdict.Fail(models.ReasonInvalidType)
	}

	// Expiry is recorded but does not stop the remaining checks.
	verdict.Checks.NotExpired = !doc.ExpiredAt(verdict.CheckedAt)
	if !verdict.Checks.NotExpired {
		verdict.Fail(models.ReasonExpired)
	}

	verdict.Checks.SignatureOK = s.verifySignature(ctx, signed)
	if !verdict.Checks.SignatureOK {
		verdict.Fail(models.ReasonSignatureInvalid)
	}

	s.checkStatus(ctx, doc.ID, verdict)

	verdict.Checks.DisclosureOK = disclosureMatches(doc.Subject, req.Disclosed)
	if !verdict.Checks.DisclosureOK {
		verdict.Fail(models.ReasonDisclosureMismatch)
	}

	verdict.Checks.ChallengeOK = s.checkChallenge(ctx, req.Challenge)
	if !verdict.Checks.ChallengeOK {
		verdict.Fail(models.ReasonChallengeInvalid)
	}

	verdict.Verified = verdict.Checks.Passed()
	s.finishPresentation(ctx, verdict)
	return verdict, nil
}

// resolve turns the reference into signed bytes. Precedence: document, then
// CID, then id. A non-empty reason means resolution failed.
func (s *Service) resolve(ctx context.Context, ref models.CredentialRef, verdict *models.Verdict) (models.SignedDocument, models.Reason) {
	switch {
	case len(ref.Document) > 0:
		return s.decodePresented(ref.Document, verdict)
	case ref.CID != "":
		return s.fetch(ctx, ref.CID, verdict)
	default:
		cid, reason := s.lookupCID(ctx, ref.ID)
		if reason != "" {
			return models.SignedDocument{}, reason
		}
		return s.fetch(ctx, cid, verdict)
	}
}

func (s *Service) decodePresented(raw json.RawMessage, verdict *models.Verdict) (models.SignedDocument, models.Reason) {
	if err := schema.Validate(raw); err != nil {
		return models.SignedDocument{}, models.ReasonMalformedDocument
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.SignedDocument{}, models.ReasonMalformedDocument
	}
	canon, err := canonical.Marshal(raw)
	if err != nil {
		return models.SignedDocument{}, models.ReasonMalformedDocument
	}
	if id, err := contentstore.ComputeCID(canon); err == nil {
		verdict.CID = id.String()
	}
	return models.SignedDocument{Document: doc, Raw: raw}, ""
}

func (s *Service) fetch(ctx context.Context, cid string, verdict *models.Verdict) (models.SignedDocument, models.Reason) {
	raw, err := s.contents.Get(ctx, cid)
	switch {
	case dErrors.HasCode(err, dErrors.CodeStorageUnavailable):
		s.metrics.IncBackendError("content")
		s.logger.WarnContext(ctx, "content store unavailable during presentation",
			"error", err,
			"cid", cid,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.SignedDocument{}, models.ReasonStorageUnavailable
	case err != nil:
		return models.SignedDocument{}, models.ReasonNotFound
	}
	verdict.CID = cid
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.SignedDocument{}, models.ReasonMalformedDocument
	}
	return models.SignedDocument{Document: doc, Raw: raw}, ""
}

// lookupCID maps an application or numeric id to a content reference. The
// metadata store is consulted before the registry.
func (s *Service) lookupCID(ctx context.Context, ref string) (string, models.Reason) {
	if parsed := models.ParseRegistryRef(ref); parsed.IsNumeric() {
		appID, found, err := s.registry.ResolveApplicationID(ctx, parsed.NumericID)
		if err != nil {
			s.metrics.IncBackendError("registry")
			return "", models.ReasonStatusUnavailable
		}
		if !found {
			return "", models.ReasonNotFound
		}
		ref = string(appID)
	}

	registryDown := false
	for _, candidate := range models.LookupCandidates(ref) {
		if s.metadata != nil {
			record, err := s.metadata.FindByID(ctx, candidate)
			if err == nil && record.CID != "" {
				return record.CID, ""
			}
			if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.metrics.IncBackendError("metadata")
				s.logger.WarnContext(ctx, "metadata lookup failed",
					"error", err,
					"credential_id", candidate,
				)
			}
		}
		status, err := s.registry.Status(ctx, models.ByApplicationID(candidate))
		if err != nil {
			registryDown = true
			continue
		}
		if status.Record != nil && status.Record.ContentRef != "" {
			return status.Record.ContentRef, ""
		}
	}
	if registryDown {
		s.metrics.IncBackendError("registry")
		return "", models.ReasonStatusUnavailable
	}
	return "", models.ReasonNotFound
}

func (s *Service) verifySignature(ctx context.Context, signed models.SignedDocument) bool {
	proof := signed.Document.Proof
	if proof == nil || proof.ProofPurpose != models.ProofPurposeAssertion {
		return false
	}
	key, err := s.keys.ResolveKey(ctx, signed.Document.Issuer, proof.VerificationMethod)
	if err != nil {
		s.logger.DebugContext(ctx, "verification key not resolved",
			"error", err,
			"issuer", signed.Document.Issuer,
			"verification_method", proof.VerificationMethod,
		)
		return false
	}
	return signing.Verify(signed.Raw, *proof, key)
}

// checkStatus looks the credential up by numeric id when the metadata store
// knows it, otherwise by application id.
func (s *Service) checkStatus(ctx context.Context, id models.CredentialID, verdict *models.Verdict) {
	ref := models.ByApplicationID(id)
	if s.metadata != nil {
		if record, err := s.metadata.FindByID(ctx, id); err == nil && record.NumericID != 0 {
			ref = models.ByNumericID(record.NumericID)
		}
	}
	status, err := s.registry.Status(ctx, ref)
	if err != nil {
		s.metrics.IncBackendError("registry")
		s.logger.WarnContext(ctx, "registry unavailable during presentation",
			"error", err,
			"credential_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		verdict.Fail(models.ReasonStatusUnavailable)
		return
	}
	verdict.Status = status
	verdict.Checks.Active = status.Active()
	switch {
	case !status.Registered:
		verdict.Fail(models.ReasonUnregistered)
	case status.Revoked:
		verdict.Fail(models.ReasonRevoked)
	}
}

// disclosureMatches reports whether every disclosed claim present in the
// subject has an equal value. Keys absent from the subject are ignored. The
// subject id must match exactly when disclosed.
func disclosureMatches(subject, disclosed map[string]any) bool {
	for k, want := range disclosed {
		have, ok := subject[k]
		if !ok {
			continue
		}
		if k == models.SubjectIDKey {
			w, wok := want.(string)
			h, hok := have.(string)
			if !wok || !hok || w != h {
				return false
			}
			continue
		}
		if !canonical.Equal(want, have) {
			return false
		}
	}
	return true
}

// checkChallenge passes when no challenge was supplied. A supplied token must
// be consumed successfully.
func (s *Service) checkChallenge(ctx context.Context, token string) bool {
	if token == "" {
		return true
	}
	ok, err := s.challenges.Consume(ctx, token)
	if err != nil {
		s.metrics.IncBackendError("challenge")
		s.logger.WarnContext(ctx, "challenge store unavailable during presentation",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return false
	}
	return ok
}

func (s *Service) finishPresentation(ctx context.Context, verdict *models.Verdict) {
	reasons := make([]string, len(verdict.Reasons))
	for i, r := range verdict.Reasons {
		reasons[i] = string(r)
	}
	s.metrics.RecordPresentation(verdict.Verified, reasons)

	verified := verdict.Verified
	s.publish(ctx, events.Event{
		Type:         events.TypePresented,
		CredentialID: string(verdict.CredentialID),
		CID:          verdict.CID,
		Verified:     &verified,
		Reasons:      reasons,
	})

	s.logger.InfoContext(ctx, "credential presented",
		"credential_id", verdict.CredentialID,
		"verified", verdict.Verified,
		"reasons", reasons,
		"request_id", requestcontext.RequestID(ctx),
	)
}
