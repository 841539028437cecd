package service

import (
	"context"
	"strings"
	"time"

	"idverse/internal/credential/models"
	"idverse/internal/credential/tracer"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/requestcontext"
)

var errRequestsDisabled = dErrors.New(dErrors.CodeInternal, "credential requests are not enabled")

// RequestIssue records a holder's ask for a credential. The request stays
// pending until an operator issues with its id or DefaultRequestTTL passes.
// The subject defaults to the authenticated caller.
func (s *Service) RequestIssue(ctx context.Context, in models.RequestIssueInput) (result *models.CredentialRequest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.request_issue", tracer.String("credential_type", in.CredentialType))
	defer func() {
		span.End(err)
		s.observe("request_issue", start)
	}()

	if s.requests == nil {
		return nil, errRequestsDisabled
	}

	caller := requestcontext.Subject(ctx)
	subjectID := strings.TrimSpace(in.SubjectID)
	if subjectID == "" {
		subjectID = caller
	}
	credType := strings.TrimSpace(in.CredentialType)
	if err = validateIssue(models.IssueRequest{
		SubjectID:      subjectID,
		CredentialType: credType,
		Claims:         in.Claims,
	}); err != nil {
		return nil, err
	}

	now := s.now(ctx).UTC().Truncate(time.Second)
	req := models.CredentialRequest{
		ID:             models.NewCredentialRequestID(),
		CredentialType: credType,
		SubjectID:      models.SubjectDID(subjectID),
		Claims:         in.Claims,
		RequestedBy:    caller,
		Status:         models.RequestPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.requestTTL),
	}
	if err = s.requests.SaveRequest(ctx, req); err != nil {
		s.metrics.IncBackendError("metadata")
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to record credential request")
	}

	s.logger.InfoContext(ctx, "credential requested",
		"credential_request_id", req.ID,
		"credential_type", credType,
		"requested_by", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &req, nil
}

// pendingRequest loads a request an operator is issuing against and rejects
// ones that are unknown, already fulfilled or past their approval window.
func (s *Service) pendingRequest(ctx context.Context, id models.CredentialRequestID, now time.Time) (models.CredentialRequest, error) {
	if s.requests == nil {
		return models.CredentialRequest{}, errRequestsDisabled
	}
	req, err := s.requests.FindRequest(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return models.CredentialRequest{}, err
		}
		s.metrics.IncBackendError("metadata")
		return models.CredentialRequest{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to load credential request")
	}
	if req.Status != models.RequestPending {
		return models.CredentialRequest{}, dErrors.New(dErrors.CodeConflict, "credential request was already issued")
	}
	if req.Expired(now) {
		return models.CredentialRequest{}, dErrors.New(dErrors.CodeExpired, "credential request has expired")
	}
	return req, nil
}

// applyRequest fills the fields the operator left empty from the pending
// request. Explicit values must agree with it.
func applyRequest(in models.IssueRequest, pending models.CredentialRequest) (models.IssueRequest, error) {
	if strings.TrimSpace(in.CredentialType) == "" {
		in.CredentialType = pending.CredentialType
	} else if strings.TrimSpace(in.CredentialType) != pending.CredentialType {
		return in, dErrors.New(dErrors.CodeInvalidInput, "credential_type does not match the credential request")
	}
	if strings.TrimSpace(in.SubjectID) == "" {
		in.SubjectID = pending.SubjectID
	} else if models.SubjectDID(strings.TrimSpace(in.SubjectID)) != pending.SubjectID {
		return in, dErrors.New(dErrors.CodeInvalidInput, "subject_id does not match the credential request")
	}
	if in.Claims == nil {
		in.Claims = pending.Claims
	}
	return in, nil
}

// completeRequest marks the request fulfilled once its credential is
// registered. A lost race is logged; the credential itself stands.
func (s *Service) completeRequest(ctx context.Context, id models.CredentialRequestID, credentialID models.CredentialID, at time.Time) {
	err := s.requests.MarkRequestIssued(ctx, id, credentialID, requestcontext.Subject(ctx), at)
	if err == nil {
		return
	}
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		s.metrics.IncBackendError("metadata")
	}
	s.logger.WarnContext(ctx, "failed to mark credential request issued",
		"error", err,
		"credential_request_id", id,
		"credential_id", credentialID,
		"request_id", requestcontext.RequestID(ctx),
	)
}
