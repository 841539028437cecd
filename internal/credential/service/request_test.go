package service

import (
	"time"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/requestcontext"
)

func (s *EngineSuite) requestIssue(caller string, in models.RequestIssueInput) *models.CredentialRequest {
	req, err := s.service.RequestIssue(requestcontext.WithSubject(s.ctx, caller), in)
	s.Require().NoError(err)
	return req
}

func (s *EngineSuite) TestRequestIssue() {
	s.Run("records a pending request for the caller", func() {
		req := s.requestIssue("alice", models.RequestIssueInput{
			CredentialType: "GovID",
			Claims:         models.Claims{"name": "Alice"},
		})

		s.Contains(string(req.ID), "req_")
		s.Equal(models.RequestPending, req.Status)
		s.Equal("did:example:alice", req.SubjectID)
		s.Equal("alice", req.RequestedBy)
		s.Equal(DefaultRequestTTL, req.ExpiresAt.Sub(req.CreatedAt))

		stored, err := s.metadata.FindRequest(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.RequestPending, stored.Status)
		s.Equal("Alice", stored.Claims["name"])
	})

	s.Run("explicit subject wins over caller", func() {
		req := s.requestIssue("guardian", models.RequestIssueInput{SubjectID: "bob", CredentialType: "GovID"})
		s.Equal("did:example:bob", req.SubjectID)
		s.Equal("guardian", req.RequestedBy)
	})

	s.Run("rejects invalid requests", func() {
		tests := []struct {
			name string
			in   models.RequestIssueInput
		}{
			{"missing type", models.RequestIssueInput{SubjectID: "alice"}},
			{"reserved claim", models.RequestIssueInput{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"id": "x"}}},
			{"inexact number", models.RequestIssueInput{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"n": int64(9007199254740993)}}},
		}
		for _, tt := range tests {
			s.Run(tt.name, func() {
				_, err := s.service.RequestIssue(s.ctx, tt.in)
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
			})
		}
	})

	s.Run("anonymous caller without subject is rejected", func() {
		_, err := s.service.RequestIssue(s.ctx, models.RequestIssueInput{CredentialType: "GovID"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EngineSuite) TestIssueApprovesRequest() {
	pending := s.requestIssue("alice", models.RequestIssueInput{
		CredentialType: "GovID",
		Claims:         models.Claims{"name": "Alice"},
	})
	s.clock.Advance(time.Hour)

	operatorCtx := requestcontext.WithSubject(s.ctx, "ops")
	res, err := s.service.Issue(operatorCtx, models.IssueRequest{RequestID: pending.ID})
	s.Require().NoError(err)

	s.Equal([]string{models.TypeVerifiableCredential, "GovID"}, res.Document.Types)
	s.Equal("did:example:alice", res.Document.SubjectID())
	s.Equal("Alice", res.Document.Subject["name"])
	s.Equal(pending.ID, res.RequestID)

	stored, err := s.metadata.FindRequest(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestIssued, stored.Status)
	s.Equal("ops", stored.ApprovedBy)
	s.Equal(res.Document.ID, stored.CredentialID)
	s.Require().NotNil(stored.ApprovedAt)
	s.Equal(res.Document.IssuedAt, *stored.ApprovedAt)

	s.Run("a fulfilled request cannot be issued twice", func() {
		_, err := s.service.Issue(operatorCtx, models.IssueRequest{RequestID: pending.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *EngineSuite) TestIssueWithRequestOverrides() {
	pending := s.requestIssue("alice", models.RequestIssueInput{
		CredentialType: "GovID",
		Claims:         models.Claims{"name": "Alice"},
	})

	s.Run("mismatched type is rejected", func() {
		_, err := s.service.Issue(s.ctx, models.IssueRequest{RequestID: pending.ID, CredentialType: "Diploma"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("mismatched subject is rejected", func() {
		_, err := s.service.Issue(s.ctx, models.IssueRequest{RequestID: pending.ID, SubjectID: "mallory"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("operator claims replace the requested ones", func() {
		res, err := s.service.Issue(s.ctx, models.IssueRequest{
			RequestID: pending.ID,
			SubjectID: "alice",
			Claims:    models.Claims{"name": "Alice Liddell"},
		})
		s.Require().NoError(err)
		s.Equal("Alice Liddell", res.Document.Subject["name"])
	})
}

func (s *EngineSuite) TestIssueWithUnknownOrExpiredRequest() {
	_, err := s.service.Issue(s.ctx, models.IssueRequest{RequestID: "req_missing"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	pending := s.requestIssue("alice", models.RequestIssueInput{CredentialType: "GovID"})
	s.clock.Advance(DefaultRequestTTL)

	_, err = s.service.Issue(s.ctx, models.IssueRequest{RequestID: pending.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))

	stored, err := s.metadata.FindRequest(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestPending, stored.Status)
}
