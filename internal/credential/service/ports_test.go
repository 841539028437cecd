package service

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idverse/internal/credential/events"
	"idverse/internal/credential/models"
	"idverse/internal/credential/service/mocks"
	"idverse/internal/credential/signing"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/testutil"
)

// PortsSuite injects backend failures through mocked collaborators.
type PortsSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	signer     *signing.Signer
	contents   *mocks.MockContentStore
	registry   *mocks.MockRegistry
	challenges *mocks.MockChallengeIssuer
	metadata   *mocks.MockMetadataStore
	requests   *mocks.MockRequestStore
	publisher  *mocks.MockPublisher
	service    *Service
}

func (s *PortsSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())

	handle, err := signing.GenerateOrLoadKeypair(s.ctx, signing.NewMemoryKeyStore(), models.DefaultIssuer)
	s.Require().NoError(err)
	clock := testutil.NewClock(testutil.FixedNow)
	s.signer = signing.New(handle, signing.WithClock(clock.Now))

	s.contents = mocks.NewMockContentStore(s.ctrl)
	s.registry = mocks.NewMockRegistry(s.ctrl)
	s.challenges = mocks.NewMockChallengeIssuer(s.ctrl)
	s.metadata = mocks.NewMockMetadataStore(s.ctrl)
	s.requests = mocks.NewMockRequestStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.service = New(s.signer, s.contents, s.registry, s.challenges,
		WithMetadataStore(s.metadata),
		WithRequestStore(s.requests),
		WithPublisher(s.publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock.Now),
	)
}

func (s *PortsSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPortsSuite(t *testing.T) {
	suite.Run(t, new(PortsSuite))
}

var issueReq = models.IssueRequest{SubjectID: "alice", CredentialType: "GovID", Claims: models.Claims{"age": 30}}

func (s *PortsSuite) signedRaw() ([]byte, models.Document) {
	doc := testutil.NewDocumentBuilder().Build()
	proof, err := s.signer.Sign(doc)
	s.Require().NoError(err)
	doc.Proof = &proof
	raw, err := json.Marshal(doc)
	s.Require().NoError(err)
	return raw, doc
}

func (s *PortsSuite) TestIssueAbortsOnStorageFailure() {
	s.contents.EXPECT().Put(gomock.Any(), gomock.Any()).
		Return("", dErrors.New(dErrors.CodeStorageUnavailable, "ipfs down"))

	_, err := s.service.Issue(s.ctx, issueReq)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
}

func (s *PortsSuite) TestIssueAbortsWhenPinFails() {
	s.contents.EXPECT().Put(gomock.Any(), gomock.Any()).Return("bafy-test", nil)
	s.contents.EXPECT().Pin(gomock.Any(), "bafy-test").Return(false, nil)

	_, err := s.service.Issue(s.ctx, issueReq)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
}

func (s *PortsSuite) TestIssueAbortsOnRegistryFailure() {
	s.contents.EXPECT().Put(gomock.Any(), gomock.Any()).Return("bafy-test", nil)
	s.contents.EXPECT().Pin(gomock.Any(), "bafy-test").Return(true, nil)
	s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(models.Receipt{}, dErrors.New(dErrors.CodeRegistryUnavailable, "timeout"))

	_, err := s.service.Issue(s.ctx, issueReq)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRegistryUnavailable))
}

func (s *PortsSuite) TestIssueSurvivesBookkeepingFailures() {
	s.contents.EXPECT().Put(gomock.Any(), gomock.Any()).Return("bafy-test", nil)
	s.contents.EXPECT().Pin(gomock.Any(), "bafy-test").Return(true, nil)
	s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in models.RegisterInput) (models.Receipt, error) {
			s.Equal("bafy-test", in.ContentRef)
			s.Equal(models.DefaultIssuer, in.Issuer)
			return models.Receipt{Operation: models.OperationRegister, ApplicationID: in.ApplicationID, NumericID: 7}, nil
		})
	s.metadata.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("db gone"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			s.Equal(events.TypeIssued, e.Type)
			s.EqualValues(7, e.NumericID)
			return errors.New("broker gone")
		})

	res, err := s.service.Issue(s.ctx, issueReq)
	s.Require().NoError(err)
	s.EqualValues(7, res.NumericID)
	s.Equal("bafy-test", res.CID)
}

func (s *PortsSuite) TestRequestIssueStorageFailure() {
	s.requests.EXPECT().SaveRequest(gomock.Any(), gomock.Any()).Return(errors.New("db gone"))

	_, err := s.service.RequestIssue(s.ctx, models.RequestIssueInput{SubjectID: "alice", CredentialType: "GovID"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
}

func (s *PortsSuite) TestIssueWithRequestAbortsWhenLookupFails() {
	s.requests.EXPECT().FindRequest(gomock.Any(), models.CredentialRequestID("req_1")).
		Return(models.CredentialRequest{}, errors.New("db gone"))

	_, err := s.service.Issue(s.ctx, models.IssueRequest{RequestID: "req_1"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
}

func (s *PortsSuite) TestIssueWithRequestSurvivesLostApproval() {
	s.requests.EXPECT().FindRequest(gomock.Any(), models.CredentialRequestID("req_1")).
		Return(models.CredentialRequest{
			ID:             "req_1",
			CredentialType: "GovID",
			SubjectID:      "did:example:alice",
			Status:         models.RequestPending,
			ExpiresAt:      testutil.FixedNow.Add(time.Hour),
		}, nil)
	s.contents.EXPECT().Put(gomock.Any(), gomock.Any()).Return("bafy-test", nil)
	s.contents.EXPECT().Pin(gomock.Any(), "bafy-test").Return(true, nil)
	s.registry.EXPECT().Register(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in models.RegisterInput) (models.Receipt, error) {
			return models.Receipt{Operation: models.OperationRegister, ApplicationID: in.ApplicationID, NumericID: 3}, nil
		})
	s.requests.EXPECT().MarkRequestIssued(gomock.Any(), models.CredentialRequestID("req_1"), gomock.Any(), gomock.Any(), testutil.FixedNow).
		Return(dErrors.New(dErrors.CodeConflict, "credential request is no longer pending"))
	s.metadata.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Issue(s.ctx, models.IssueRequest{RequestID: "req_1"})
	s.Require().NoError(err)
	s.Equal("did:example:alice", res.Document.SubjectID())
	s.Equal(models.CredentialRequestID("req_1"), res.RequestID)
}

func (s *PortsSuite) TestPresentRegistryUnavailable() {
	raw, doc := s.signedRaw()
	s.metadata.EXPECT().FindByID(gomock.Any(), doc.ID).Return(models.CredentialRecord{}, dErrors.New(dErrors.CodeNotFound, "missing"))
	s.registry.EXPECT().Status(gomock.Any(), models.ByApplicationID(doc.ID)).
		Return(models.RegistryStatus{}, dErrors.New(dErrors.CodeRegistryUnavailable, "timeout"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	v, err := s.service.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{Document: raw}})
	s.Require().NoError(err)
	s.False(v.Verified)
	s.True(v.Checks.SignatureOK)
	s.False(v.Checks.Active)
	s.Equal([]models.Reason{models.ReasonStatusUnavailable}, v.Reasons)
}

func (s *PortsSuite) TestPresentChecksStatusByNumericID() {
	raw, doc := s.signedRaw()
	s.metadata.EXPECT().FindByID(gomock.Any(), doc.ID).Return(models.CredentialRecord{ID: doc.ID, NumericID: 42}, nil)
	s.registry.EXPECT().Status(gomock.Any(), models.ByNumericID(42)).
		Return(models.RegistryStatus{Registered: true, Record: &models.RegistryRecord{ApplicationID: doc.ID, NumericID: 42}}, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	v, err := s.service.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{Document: raw}})
	s.Require().NoError(err)
	s.True(v.Verified, "reasons: %v", v.Reasons)
}

func (s *PortsSuite) TestPresentStorageUnavailable() {
	s.contents.EXPECT().Get(gomock.Any(), "bafy-test").
		Return(nil, dErrors.New(dErrors.CodeStorageUnavailable, "ipfs down"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	v, err := s.service.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{CID: "bafy-test"}})
	s.Require().NoError(err)
	s.False(v.Verified)
	s.Equal([]models.Reason{models.ReasonStorageUnavailable}, v.Reasons)
}

func (s *PortsSuite) TestPresentChallengeStoreUnavailable() {
	raw, doc := s.signedRaw()
	s.metadata.EXPECT().FindByID(gomock.Any(), doc.ID).Return(models.CredentialRecord{}, dErrors.New(dErrors.CodeNotFound, "missing"))
	s.registry.EXPECT().Status(gomock.Any(), gomock.Any()).
		Return(models.RegistryStatus{Registered: true, Record: &models.RegistryRecord{ApplicationID: doc.ID}}, nil)
	s.challenges.EXPECT().Consume(gomock.Any(), "token").
		Return(false, dErrors.New(dErrors.CodeStorageUnavailable, "redis down"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	v, err := s.service.Present(s.ctx, models.PresentRequest{
		Credential: models.CredentialRef{Document: raw},
		Challenge:  "token",
	})
	s.Require().NoError(err)
	s.False(v.Verified)
	s.Equal([]models.Reason{models.ReasonChallengeInvalid}, v.Reasons)
}

func (s *PortsSuite) TestPresentUsesKeyResolver() {
	resolver := mocks.NewMockKeyResolver(s.ctrl)
	svc := New(s.signer, s.contents, s.registry, s.challenges,
		WithKeyResolver(resolver),
		WithClock(testutil.NewClock(testutil.FixedNow).Now),
	)

	raw, doc := s.signedRaw()
	resolver.EXPECT().ResolveKey(gomock.Any(), doc.Issuer, doc.Proof.VerificationMethod).
		Return(ed25519.PublicKey(make([]byte, ed25519.PublicKeySize)), nil)
	s.registry.EXPECT().Status(gomock.Any(), gomock.Any()).
		Return(models.RegistryStatus{Registered: true, Record: &models.RegistryRecord{ApplicationID: doc.ID}}, nil)

	v, err := svc.Present(s.ctx, models.PresentRequest{Credential: models.CredentialRef{Document: raw}})
	s.Require().NoError(err)
	s.False(v.Checks.SignatureOK)
	s.Equal([]models.Reason{models.ReasonSignatureInvalid}, v.Reasons)
}

func (s *PortsSuite) TestRevokePrefersNumericID() {
	s.metadata.EXPECT().FindByID(gomock.Any(), models.CredentialID("vc_abc")).
		Return(models.CredentialRecord{}, dErrors.New(dErrors.CodeNotFound, "missing"))
	s.registry.EXPECT().ResolveNumericID(gomock.Any(), models.CredentialID("vc_abc")).Return(uint64(9), true, nil)
	s.registry.EXPECT().Revoke(gomock.Any(), models.ByNumericID(9), "lost").
		Return(models.Receipt{Operation: models.OperationRevoke, ApplicationID: "vc_abc", NumericID: 9, Reason: "lost"}, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			s.Equal(events.TypeRevoked, e.Type)
			s.Equal("lost", e.Reason)
			return nil
		})

	receipt, err := s.service.Revoke(s.ctx, "vc_abc", "lost")
	s.Require().NoError(err)
	s.EqualValues(9, receipt.NumericID)
}

func (s *PortsSuite) TestRevokeRegistryUnavailable() {
	s.metadata.EXPECT().FindByID(gomock.Any(), gomock.Any()).
		Return(models.CredentialRecord{}, dErrors.New(dErrors.CodeNotFound, "missing"))
	s.registry.EXPECT().ResolveNumericID(gomock.Any(), gomock.Any()).
		Return(uint64(0), false, dErrors.New(dErrors.CodeRegistryUnavailable, "timeout"))

	_, err := s.service.Revoke(s.ctx, "vc_abc", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRegistryUnavailable))
}

func (s *PortsSuite) TestIssueChallengeFailure() {
	s.challenges.EXPECT().Issue(gomock.Any()).
		Return(models.Challenge{}, dErrors.New(dErrors.CodeStorageUnavailable, "redis down"))

	_, err := s.service.IssueChallenge(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
}
