package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"idverse/internal/credential/challenge"
	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/events"
	"idverse/internal/credential/metrics"
	"idverse/internal/credential/models"
	"idverse/internal/credential/registry"
	"idverse/internal/credential/signing"
	"idverse/internal/credential/store"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// EngineSuite drives the engine against the in-memory backends.
type EngineSuite struct {
	suite.Suite
	ctx        context.Context
	clock      *testutil.Clock
	signer     *signing.Signer
	content    *contentstore.MemoryBackend
	registry   *registry.MemoryRegistry
	challenges *challenge.Issuer
	metadata   *store.InMemoryStore
	publisher  *recordingPublisher
	service    *Service
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = testutil.NewClock(testutil.FixedNow)

	handle, err := signing.GenerateOrLoadKeypair(s.ctx, signing.NewMemoryKeyStore(), models.DefaultIssuer)
	s.Require().NoError(err)
	s.signer = signing.New(handle, signing.WithClock(s.clock.Now))

	s.content = contentstore.NewMemoryBackend()
	s.registry = registry.NewMemory(registry.WithClock(s.clock.Now))
	s.challenges = challenge.NewIssuer(challenge.NewMemoryStore(), challenge.WithClock(s.clock.Now))
	s.metadata = store.NewInMemoryStore()
	s.publisher = &recordingPublisher{}

	s.service = New(s.signer, contentstore.New(s.content), s.registry, s.challenges,
		WithMetadataStore(s.metadata),
		WithRequestStore(s.metadata),
		WithPublisher(s.publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
		WithClock(s.clock.Now),
	)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) issue(expiry models.ExpiryPolicy) *models.IssueResult {
	res, err := s.service.Issue(s.ctx, models.IssueRequest{
		SubjectID:      "alice",
		CredentialType: "GovID",
		Claims:         models.Claims{"age": 30},
		Expiry:         expiry,
	})
	s.Require().NoError(err)
	return res
}

func (s *EngineSuite) rawDocument(doc models.Document) json.RawMessage {
	raw, err := json.Marshal(doc)
	s.Require().NoError(err)
	return raw
}

func (s *EngineSuite) challenge() string {
	c, err := s.service.IssueChallenge(s.ctx)
	s.Require().NoError(err)
	return c.Token
}

func (s *EngineSuite) present(req models.PresentRequest) *models.Verdict {
	v, err := s.service.Present(s.ctx, req)
	s.Require().NoError(err)
	return v
}

func (s *EngineSuite) TestIssue() {
	s.Run("builds a signed registered document", func() {
		res := s.issue(models.ExpiryPolicy{})
		doc := res.Document

		s.Equal([]string{models.ContextCredentialsV1}, doc.Context)
		s.Equal([]string{models.TypeVerifiableCredential, "GovID"}, doc.Types)
		s.Equal(models.DefaultIssuer, doc.Issuer)
		s.Equal("did:example:alice", doc.SubjectID())
		s.Equal(testutil.FixedNow, doc.IssuedAt)
		s.Require().NotNil(doc.ExpiresAt)
		s.Equal(testutil.FixedNow.Add(DefaultCredentialTTL), *doc.ExpiresAt)
		s.Require().NotNil(doc.Proof)
		s.Equal(s.signer.VerificationMethod(), doc.Proof.VerificationMethod)

		s.True(signing.Verify(doc, *doc.Proof, s.signer.PublicKey()))

		id, err := contentstore.ParseCID(res.CID)
		s.Require().NoError(err)
		s.True(s.content.Pinned(id))

		status, err := s.registry.Status(s.ctx, models.ByApplicationID(doc.ID))
		s.Require().NoError(err)
		s.True(status.Active())
		s.Equal(res.CID, status.Record.ContentRef)
		s.Equal(res.NumericID, status.Record.NumericID)
		s.Equal(models.OperationRegister, res.Receipt.Operation)

		record, err := s.metadata.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(res.CID, record.CID)
		s.Equal(res.NumericID, record.NumericID)
	})

	s.Run("stored bytes are the canonical signed document", func() {
		res := s.issue(models.ExpiryPolicy{})
		cid, err := contentstore.New(s.content).Put(s.ctx, res.Document)
		s.Require().NoError(err)
		s.Equal(res.CID, cid)
	})

	s.Run("expiry policies", func() {
		never := s.issue(models.NeverExpire())
		s.Nil(never.Document.ExpiresAt)

		after := s.issue(models.ExpireAfter(time.Hour))
		s.Require().NotNil(after.Document.ExpiresAt)
		s.Equal(testutil.FixedNow.Add(time.Hour), *after.Document.ExpiresAt)
	})

	s.Run("numeric ids increase", func() {
		first := s.issue(models.ExpiryPolicy{})
		second := s.issue(models.ExpiryPolicy{})
		s.Greater(second.NumericID, first.NumericID)
	})

	s.Run("publishes issued event", func() {
		before := len(s.publisher.types())
		s.issue(models.ExpiryPolicy{})
		s.Equal(events.TypeIssued, s.publisher.types()[before])
	})

	s.Run("rejects invalid requests", func() {
		tests := []struct {
			name string
			req  models.IssueRequest
		}{
			{"missing subject", models.IssueRequest{CredentialType: "GovID"}},
			{"missing type", models.IssueRequest{SubjectID: "alice"}},
			{"bare VerifiableCredential type", models.IssueRequest{SubjectID: "alice", CredentialType: models.TypeVerifiableCredential}},
			{"reserved claim", models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"id": "x"}}},
			{"expiry in the past", models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Expiry: models.ExpireAt(testutil.FixedNow.Add(-time.Hour))}},
			{"integer beyond double precision", models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"nationalId": int64(9007199254740993)}}},
			{"NaN claim", models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"score": math.NaN()}}},
			{"unencodable claim", models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"cb": func() {}}}},
		}
		for _, tt := range tests {
			s.Run(tt.name, func() {
				_, err := s.service.Issue(s.ctx, tt.req)
				s.Require().Error(err)
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
			})
		}
	})

	s.Run("rejected claims leave no trace", func() {
		before := len(s.publisher.types())
		_, err := s.service.Issue(s.ctx, models.IssueRequest{
			SubjectID:      "bob",
			CredentialType: "GovID",
			Claims:         models.Claims{"nationalId": uint64(18446744073709551615)},
		})
		s.Require().Error(err)
		s.Len(s.publisher.types(), before)
		records, err := s.metadata.ListBySubject(s.ctx, models.SubjectDID("bob"))
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("large integers within double precision round trip", func() {
		res, err := s.service.Issue(s.ctx, models.IssueRequest{
			SubjectID:      "alice",
			CredentialType: "GovID",
			Claims:         models.Claims{"nationalId": int64(9007199254740992)},
		})
		s.Require().NoError(err)
		v := s.present(models.PresentRequest{Credential: models.CredentialRef{CID: res.CID}})
		s.True(v.Verified, v.Reasons)
	})
}

// Scenario A: a fresh credential presented in full with a live challenge.
func (s *EngineSuite) TestPresentValidCredential() {
	res := s.issue(models.ExpiryPolicy{})

	v := s.present(models.PresentRequest{
		Credential: models.CredentialRef{Document: s.rawDocument(res.Document)},
		Challenge:  s.challenge(),
	})

	s.True(v.Verified, "reasons: %v", v.Reasons)
	s.Empty(v.Reasons)
	s.Equal(models.Checks{TypeOK: true, NotExpired: true, SignatureOK: true, Active: true, DisclosureOK: true, ChallengeOK: true}, v.Checks)
	s.Equal(res.Document.ID, v.CredentialID)
	s.Equal(res.CID, v.CID)
	s.True(v.Status.Active())
	s.Require().NotNil(v.Document)
	s.Equal(events.TypePresented, s.publisher.types()[len(s.publisher.types())-1])
}

// Scenario B: revocation is visible to later presentations.
func (s *EngineSuite) TestPresentRevokedCredential() {
	res := s.issue(models.ExpiryPolicy{})

	receipt, err := s.service.Revoke(s.ctx, string(res.Document.ID), "compromised")
	s.Require().NoError(err)
	s.Equal(models.OperationRevoke, receipt.Operation)
	s.Equal(res.NumericID, receipt.NumericID)

	v := s.present(models.PresentRequest{
		Credential: models.CredentialRef{Document: s.rawDocument(res.Document)},
		Challenge:  s.challenge(),
	})
	s.False(v.Verified)
	s.True(v.Status.Revoked)
	s.False(v.Checks.Active)
	s.True(v.Checks.SignatureOK)
	s.Equal([]models.Reason{models.ReasonRevoked}, v.Reasons)
}

// Scenario C: an expired challenge fails only the challenge check.
func (s *EngineSuite) TestPresentExpiredChallenge() {
	res := s.issue(models.ExpiryPolicy{})
	token := s.challenge()
	s.clock.Advance(challenge.DefaultTTL + time.Second)

	v := s.present(models.PresentRequest{
		Credential: models.CredentialRef{Document: s.rawDocument(res.Document)},
		Challenge:  token,
	})
	s.False(v.Verified)
	s.False(v.Checks.ChallengeOK)
	s.True(v.Checks.SignatureOK)
	s.True(v.Checks.Active)
	s.Equal([]models.Reason{models.ReasonChallengeInvalid}, v.Reasons)
}

// Scenario D: an expired credential never verifies, and the other checks
// still run.
func (s *EngineSuite) TestPresentExpiredCredential() {
	res := s.issue(models.ExpireAfter(time.Second))
	s.clock.Advance(2 * time.Second)

	v := s.present(models.PresentRequest{
		Credential: models.CredentialRef{Document: s.rawDocument(res.Document)},
		Challenge:  s.challenge(),
	})
	s.False(v.Verified)
	s.False(v.Checks.NotExpired)
	s.True(v.Checks.SignatureOK)
	s.True(v.Checks.Active)
	s.True(v.Checks.ChallengeOK)
	s.Equal([]models.Reason{models.ReasonExpired}, v.Reasons)
}

func (s *EngineSuite) TestPresentResolution() {
	res := s.issue(models.ExpiryPolicy{})
	id := string(res.Document.ID)

	tests := []struct {
		name string
		ref  models.CredentialRef
	}{
		{"by cid", models.CredentialRef{CID: res.CID}},
		{"by id", models.CredentialRef{ID: id}},
		{"by id without prefix", models.CredentialRef{ID: id[len("vc_"):]}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			v := s.present(models.PresentRequest{Credential: tt.ref})
			s.True(v.Verified, "reasons: %v", v.Reasons)
			s.Equal(res.Document.ID, v.CredentialID)
			s.Equal(res.CID, v.CID)
		})
	}

	s.Run("by numeric id", func() {
		v := s.present(models.PresentRequest{Credential: models.CredentialRef{ID: "1"}})
		s.True(v.Verified, "reasons: %v", v.Reasons)
	})

	s.Run("by id without metadata store", func() {
		svc := New(s.signer, contentstore.New(s.content), s.registry, s.challenges, WithClock(s.clock.Now))
		v, err := svc.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{ID: id}})
		s.Require().NoError(err)
		s.True(v.Verified, "reasons: %v", v.Reasons)
	})

	s.Run("substrings never resolve", func() {
		v := s.present(models.PresentRequest{Credential: models.CredentialRef{ID: id[:12]}})
		s.False(v.Verified)
		s.Equal([]models.Reason{models.ReasonNotFound}, v.Reasons)
	})

	s.Run("unknown cid", func() {
		v := s.present(models.PresentRequest{Credential: models.CredentialRef{CID: "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"}})
		s.False(v.Verified)
		s.Equal([]models.Reason{models.ReasonNotFound}, v.Reasons)
	})

	s.Run("empty reference is a request error", func() {
		_, err := s.service.Present(s.ctx, models.PresentRequest{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *EngineSuite) TestPresentTamperedDocument() {
	res := s.issue(models.ExpiryPolicy{})

	tampered := res.Document
	tampered.Subject = map[string]any{"id": "did:example:alice", "age": 31}
	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: s.rawDocument(tampered)}})
	s.False(v.Verified)
	s.False(v.Checks.SignatureOK)
	s.Contains(v.Reasons, models.ReasonSignatureInvalid)
	s.NotEqual(res.CID, v.CID)
}

func (s *EngineSuite) TestPresentExtraFieldsAreSigned() {
	res := s.issue(models.ExpiryPolicy{})

	var obj map[string]any
	s.Require().NoError(json.Unmarshal(s.rawDocument(res.Document), &obj))
	obj["note"] = "added after signing"
	raw, err := json.Marshal(obj)
	s.Require().NoError(err)

	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: raw}})
	s.False(v.Checks.SignatureOK)
}

func (s *EngineSuite) TestPresentReorderedDocument() {
	res := s.issue(models.ExpiryPolicy{})

	var obj map[string]any
	s.Require().NoError(json.Unmarshal(s.rawDocument(res.Document), &obj))
	raw, err := json.MarshalIndent(obj, "", "    ")
	s.Require().NoError(err)

	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: raw}})
	s.True(v.Verified, "reasons: %v", v.Reasons)
	s.Equal(res.CID, v.CID)
}

func (s *EngineSuite) TestPresentMalformedDocument() {
	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: json.RawMessage(`{"id":"vc_x"}`)}})
	s.False(v.Verified)
	s.Equal([]models.Reason{models.ReasonMalformedDocument}, v.Reasons)
	s.Nil(v.Document)
}

func (s *EngineSuite) TestPresentInvalidType() {
	doc := testutil.NewDocumentBuilder().WithTypes("GovID").Build()
	proof, err := s.signer.Sign(doc)
	s.Require().NoError(err)
	doc.Proof = &proof

	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: s.rawDocument(doc)}})
	s.False(v.Verified)
	s.False(v.Checks.TypeOK)
	s.True(v.Checks.SignatureOK)
	s.Contains(v.Reasons, models.ReasonInvalidType)
	s.Contains(v.Reasons, models.ReasonUnregistered)
}

func (s *EngineSuite) TestPresentForeignIssuer() {
	other, err := signing.GenerateOrLoadKeypair(s.ctx, signing.NewMemoryKeyStore(), "did:example:other")
	s.Require().NoError(err)
	foreign := signing.New(other)

	doc := testutil.NewDocumentBuilder().WithIssuer("did:example:other").Build()
	proof, err := foreign.Sign(doc)
	s.Require().NoError(err)
	doc.Proof = &proof

	v := s.present(models.PresentRequest{Credential: models.CredentialRef{Document: s.rawDocument(doc)}})
	s.False(v.Checks.SignatureOK)

	resolver := NewStaticKeyResolver()
	s.Require().NoError(resolver.Add("did:example:other", foreign.PublicKeyMultibase()))
	svc := New(s.signer, contentstore.New(s.content), s.registry, s.challenges,
		WithClock(s.clock.Now),
		WithKeyResolver(resolver),
	)
	v, err = svc.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{Document: s.rawDocument(doc)}})
	s.Require().NoError(err)
	s.True(v.Checks.SignatureOK)
	s.Equal([]models.Reason{models.ReasonUnregistered}, v.Reasons)
}

func (s *EngineSuite) TestSelectiveDisclosure() {
	res, err := s.service.Issue(s.ctx, models.IssueRequest{
		SubjectID:      "alice",
		CredentialType: "GovID",
		Claims:         models.Claims{"age": 30, "country": "NZ", "address": map[string]any{"city": "Wellington"}},
	})
	s.Require().NoError(err)
	ref := models.CredentialRef{ID: string(res.Document.ID)}

	tests := []struct {
		name      string
		disclosed map[string]any
		ok        bool
	}{
		{"subset matches", map[string]any{"age": 30}, true},
		{"float and int compare equal", map[string]any{"age": 30.0}, true},
		{"nested value matches", map[string]any{"address": map[string]any{"city": "Wellington"}}, true},
		{"subject id matches", map[string]any{"id": "did:example:alice"}, true},
		{"unknown keys are ignored", map[string]any{"age": 30, "nickname": "al"}, true},
		{"empty disclosure", map[string]any{}, true},
		{"value mismatch", map[string]any{"age": 31}, false},
		{"nested mismatch", map[string]any{"address": map[string]any{"city": "Auckland"}}, false},
		{"subject id must be exact", map[string]any{"id": "alice"}, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			v := s.present(models.PresentRequest{Credential: ref, Disclosed: tt.disclosed})
			s.Equal(tt.ok, v.Checks.DisclosureOK)
			s.Equal(tt.ok, v.Verified)
			if !tt.ok {
				s.Equal([]models.Reason{models.ReasonDisclosureMismatch}, v.Reasons)
			}
		})
	}
}

func (s *EngineSuite) TestChallengeSingleUse() {
	res := s.issue(models.ExpiryPolicy{})
	ref := models.CredentialRef{ID: string(res.Document.ID)}
	token := s.challenge()

	first := s.present(models.PresentRequest{Credential: ref, Challenge: token})
	s.True(first.Verified)

	second := s.present(models.PresentRequest{Credential: ref, Challenge: token})
	s.False(second.Verified)
	s.Equal([]models.Reason{models.ReasonChallengeInvalid}, second.Reasons)

	unknown := s.present(models.PresentRequest{Credential: ref, Challenge: "never-issued"})
	s.False(unknown.Checks.ChallengeOK)
}

func (s *EngineSuite) TestRevoke() {
	s.Run("second revoke fails", func() {
		res := s.issue(models.ExpiryPolicy{})
		_, err := s.service.Revoke(s.ctx, string(res.Document.ID), "")
		s.Require().NoError(err)

		_, err = s.service.Revoke(s.ctx, string(res.Document.ID), "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
	})

	s.Run("unknown id", func() {
		_, err := s.service.Revoke(s.ctx, "vc_missing", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("by numeric id", func() {
		res := s.issue(models.ExpiryPolicy{})
		receipt, err := s.service.Revoke(s.ctx, models.ByNumericID(res.NumericID).String(), "")
		s.Require().NoError(err)
		s.Equal(res.Document.ID, receipt.ApplicationID)
	})

	s.Run("without metadata store", func() {
		svc := New(s.signer, contentstore.New(s.content), s.registry, s.challenges, WithClock(s.clock.Now))
		res := s.issue(models.ExpiryPolicy{})
		receipt, err := svc.Revoke(s.ctx, string(res.Document.ID), "")
		s.Require().NoError(err)
		s.Equal(res.NumericID, receipt.NumericID)
	})

	s.Run("concurrent revokes have one winner", func() {
		res := s.issue(models.ExpiryPolicy{})
		result := testutil.RunConcurrent(10, func(int) error {
			_, err := s.service.Revoke(s.ctx, string(res.Document.ID), "")
			return err
		})
		s.EqualValues(1, result.Successes)
		s.EqualValues(9, result.Conflicts)
	})

	s.Run("publishes revoked event", func() {
		res := s.issue(models.ExpiryPolicy{})
		_, err := s.service.Revoke(s.ctx, string(res.Document.ID), "")
		s.Require().NoError(err)
		types := s.publisher.types()
		s.Equal(events.TypeRevoked, types[len(types)-1])
	})
}

func (s *EngineSuite) TestStatus() {
	res := s.issue(models.ExpiryPolicy{})

	st, err := s.service.Status(s.ctx, string(res.Document.ID))
	s.Require().NoError(err)
	s.True(st.Status.Active())
	s.Equal(res.CID, st.CID)
	s.Equal(res.Document.ID, st.CredentialID)

	st, err = s.service.Status(s.ctx, models.ByNumericID(res.NumericID).String())
	s.Require().NoError(err)
	s.Equal(res.Document.ID, st.CredentialID)

	_, err = s.service.Revoke(s.ctx, string(res.Document.ID), "")
	s.Require().NoError(err)
	st, err = s.service.Status(s.ctx, string(res.Document.ID)[len("vc_"):])
	s.Require().NoError(err)
	s.True(st.Status.Revoked)

	st, err = s.service.Status(s.ctx, "vc_unknown")
	s.Require().NoError(err)
	s.False(st.Status.Registered)
	s.Empty(st.CID)

	_, err = s.service.Status(s.ctx, " ")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *EngineSuite) TestIssuerInfo() {
	info := s.service.IssuerInfo()
	s.Equal(models.DefaultIssuer, info.Issuer)
	s.Equal(s.signer.VerificationMethod(), info.VerificationMethod)
	s.Equal(s.signer.PublicKeyMultibase(), info.PublicKeyMultibase)
	s.Len(info.PublicKeyHex, 64)
}

func (s *EngineSuite) TestCredentialsBySubject() {
	first := s.issue(models.ExpiryPolicy{})
	s.clock.Advance(time.Minute)
	second := s.issue(models.ExpiryPolicy{})

	records, err := s.service.CredentialsBySubject(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(second.Document.ID, records[0].ID)
	s.Equal(first.Document.ID, records[1].ID)
}
