// Package service is the credential engine. It composes signing, content
// addressing, the registry and the challenge issuer into the issue, present,
// revoke and status operations.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Signer,ContentStore,Registry,ChallengeIssuer,MetadataStore,RequestStore,Publisher,KeyResolver

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"log/slog"
	"time"

	"idverse/internal/credential/events"
	"idverse/internal/credential/metrics"
	"idverse/internal/credential/models"
	"idverse/internal/credential/tracer"
	"idverse/pkg/platform/middleware/requesttime"
	"idverse/pkg/requestcontext"
)

// DefaultCredentialTTL applies when an issue request carries no expiry policy.
const DefaultCredentialTTL = 365 * 24 * time.Hour

// DefaultRequestTTL is how long a holder's credential request stays
// approvable.
const DefaultRequestTTL = 7 * 24 * time.Hour

// Signer produces proofs with the issuer key.
type Signer interface {
	IssuerID() string
	VerificationMethod() string
	PublicKey() ed25519.PublicKey
	PublicKeyMultibase() string
	Sign(document any) (models.Proof, error)
}

// ContentStore addresses canonical documents by CID.
type ContentStore interface {
	Put(ctx context.Context, document any) (string, error)
	Get(ctx context.Context, cid string) ([]byte, error)
	Pin(ctx context.Context, cid string) (bool, error)
}

// Registry records registration and revocation state.
type Registry interface {
	Register(ctx context.Context, in models.RegisterInput) (models.Receipt, error)
	Revoke(ctx context.Context, ref models.RegistryRef, reason string) (models.Receipt, error)
	Status(ctx context.Context, ref models.RegistryRef) (models.RegistryStatus, error)
	ResolveNumericID(ctx context.Context, appID models.CredentialID) (uint64, bool, error)
	ResolveApplicationID(ctx context.Context, numericID uint64) (models.CredentialID, bool, error)
}

// ChallengeIssuer mints and consumes presentation nonces.
type ChallengeIssuer interface {
	Issue(ctx context.Context) (models.Challenge, error)
	Consume(ctx context.Context, token string) (bool, error)
}

// MetadataStore keeps the id to CID and numeric id mapping for issued
// credentials.
type MetadataStore interface {
	Save(ctx context.Context, record models.CredentialRecord) error
	FindByID(ctx context.Context, id models.CredentialID) (models.CredentialRecord, error)
	FindByCID(ctx context.Context, cid string) (models.CredentialRecord, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.CredentialRecord, error)
}

// RequestStore keeps holder-initiated credential requests until an operator
// issues against them.
type RequestStore interface {
	SaveRequest(ctx context.Context, req models.CredentialRequest) error
	FindRequest(ctx context.Context, id models.CredentialRequestID) (models.CredentialRequest, error)
	MarkRequestIssued(ctx context.Context, id models.CredentialRequestID, credentialID models.CredentialID, approvedBy string, at time.Time) error
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// KeyResolver finds the public key behind a proof's verification method.
type KeyResolver interface {
	ResolveKey(ctx context.Context, issuer, verificationMethod string) (ed25519.PublicKey, error)
}

// Option configures the Service.
type Option func(*Service)

// Service issues, presents and revokes verifiable credentials.
type Service struct {
	signer     Signer
	contents   ContentStore
	registry   Registry
	challenges ChallengeIssuer
	metadata   MetadataStore
	requests   RequestStore
	publisher  Publisher
	keys       KeyResolver
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	clock      func() time.Time
	defaultTTL time.Duration
	requestTTL time.Duration
}

// WithMetadataStore persists credential bookkeeping after issuance and
// speeds up id resolution.
func WithMetadataStore(store MetadataStore) Option {
	return func(s *Service) {
		s.metadata = store
	}
}

// WithRequestStore enables holder-initiated credential requests.
func WithRequestStore(store RequestStore) Option {
	return func(s *Service) {
		s.requests = store
	}
}

// WithRequestTTL sets the approval window for credential requests.
func WithRequestTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.requestTTL = ttl
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock pins the engine clock. Without it the request-scoped time from
// requesttime is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

// WithDefaultTTL sets the lifetime used when an issue request has no expiry
// policy. Zero or negative means credentials never expire by default.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.defaultTTL = ttl
	}
}

// WithKeyResolver replaces the default resolver, which only knows the
// engine's own signing key.
func WithKeyResolver(r KeyResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.keys = r
		}
	}
}

// New creates the engine. The four collaborators are required.
func New(signer Signer, contents ContentStore, registry Registry, challenges ChallengeIssuer, opts ...Option) *Service {
	s := &Service{
		signer:     signer,
		contents:   contents,
		registry:   registry,
		challenges: challenges,
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
		defaultTTL: DefaultCredentialTTL,
		requestTTL: DefaultRequestTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.keys == nil {
		s.keys = NewSignerKeyResolver(signer)
	}
	return s
}

// IssueChallenge mints a single-use presentation nonce.
func (s *Service) IssueChallenge(ctx context.Context) (models.Challenge, error) {
	c, err := s.challenges.Issue(ctx)
	if err != nil {
		s.metrics.IncBackendError("challenge")
		s.logger.ErrorContext(ctx, "failed to issue challenge",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.Challenge{}, err
	}
	s.metrics.IncChallenges()
	return c, nil
}

// IssuerInfo returns the public material verifiers need to check proofs.
func (s *Service) IssuerInfo() models.IssuerInfo {
	return models.IssuerInfo{
		Issuer:             s.signer.IssuerID(),
		VerificationMethod: s.signer.VerificationMethod(),
		PublicKeyMultibase: s.signer.PublicKeyMultibase(),
		PublicKeyHex:       hex.EncodeToString(s.signer.PublicKey()),
	}
}

// CredentialsBySubject lists the bookkeeping records for a subject, newest
// first. It requires a metadata store.
func (s *Service) CredentialsBySubject(ctx context.Context, subjectID string) ([]models.CredentialRecord, error) {
	if s.metadata == nil {
		return []models.CredentialRecord{}, nil
	}
	return s.metadata.ListBySubject(ctx, models.SubjectDID(subjectID))
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requesttime.Now(ctx)
}

// publish sends a lifecycle event. Failures are logged and never surface to
// the caller because the state change they describe already happened.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now(ctx)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.IncBackendError("events")
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"error", err,
			"event_type", string(event.Type),
			"credential_id", event.CredentialID,
			"request_id", event.RequestID,
		)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.ObserveDuration(operation, time.Since(start).Seconds())
}
