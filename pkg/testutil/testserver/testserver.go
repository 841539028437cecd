// Package testserver runs the full HTTP stack in-process on in-memory
// backends, with one adjustable clock shared by every component.
package testserver

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idverse/internal/credential/challenge"
	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/handler"
	"idverse/internal/credential/metrics"
	"idverse/internal/credential/models"
	"idverse/internal/credential/registry"
	"idverse/internal/credential/service"
	"idverse/internal/credential/signing"
	"idverse/internal/credential/store"
	jwttoken "idverse/internal/jwt_token"
	"idverse/internal/platform/health"
	httptransport "idverse/internal/transport/http"
	"idverse/pkg/platform/middleware/request"
	"idverse/pkg/testutil"
)

const SigningKey = "test-server-signing-key"

// Server is a running in-process instance.
type Server struct {
	*httptest.Server
	Clock    *testutil.Clock
	Signer   *signing.Signer
	Registry *registry.MemoryRegistry
	Engine   *service.Service
	JWT      *jwttoken.JWTService
}

// New starts a server whose clock begins at start. Call Close when done.
func New(start time.Time) (*Server, error) {
	clock := testutil.NewClock(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	handle, err := signing.GenerateOrLoadKeypair(context.Background(), signing.NewMemoryKeyStore(), models.DefaultIssuer)
	if err != nil {
		return nil, err
	}
	signer := signing.New(handle, signing.WithClock(clock.Now))
	registryBackend := registry.NewMemory(registry.WithClock(clock.Now))
	challenges := challenge.NewIssuer(challenge.NewMemoryStore(),
		challenge.WithClock(clock.Now),
		challenge.WithLogger(logger),
	)

	records := store.NewInMemoryStore()
	engine := service.New(signer, contentstore.New(contentstore.NewMemoryBackend()), registryBackend, challenges,
		service.WithMetadataStore(records),
		service.WithRequestStore(records),
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(reg)),
		service.WithClock(clock.Now),
	)

	jwt := jwttoken.NewJWTService(SigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, time.Hour)
	router := httptransport.NewRouter(httptransport.Config{
		Credentials:    handler.New(engine, logger),
		Validator:      jwttoken.NewJWTServiceAdapter(jwt),
		Health:         health.New("test", signer.IssuerID()),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Metrics:        request.NewMetrics(reg),
		Clock:          clock.Now,
		Logger:         logger,
	})

	return &Server{
		Server:   httptest.NewServer(router),
		Clock:    clock,
		Signer:   signer,
		Registry: registryBackend,
		Engine:   engine,
		JWT:      jwt,
	}, nil
}

// Start is New for tests; the server is closed on cleanup.
func Start(t testing.TB) *Server {
	t.Helper()
	srv, err := New(testutil.FixedNow)
	if err != nil {
		t.Fatalf("start test server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

// IssuerToken returns a bearer token carrying the issuer role.
func (s *Server) IssuerToken() (string, error) {
	return s.JWT.GenerateToken("e2e-operator", jwttoken.RoleIssuer)
}

// HolderToken returns a bearer token for subject without the issuer role.
func (s *Server) HolderToken(subject string) (string, error) {
	return s.JWT.GenerateToken(subject, jwttoken.RoleHolder)
}
