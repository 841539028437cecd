package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"idverse/internal/credential/handler"
	jwttoken "idverse/internal/jwt_token"
	"idverse/internal/platform/health"
	ratelimitmw "idverse/internal/ratelimit/middleware"
	ratelimitmodels "idverse/internal/ratelimit/models"
	"idverse/pkg/platform/middleware/auth"
	"idverse/pkg/platform/middleware/request"
	"idverse/pkg/platform/middleware/requesttime"
)

// DefaultRequestTimeout bounds every request end to end.
const DefaultRequestTimeout = 30 * time.Second

// Config carries everything the router mounts. Health, MetricsHandler,
// Metrics, RateLimit and Clock are optional.
type Config struct {
	Credentials    *handler.Handler
	Validator      auth.JWTValidator
	Health         *health.Handler
	MetricsHandler http.Handler
	Metrics        *request.Metrics
	RateLimit      *ratelimitmw.Middleware
	Clock          func() time.Time
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter wires all public endpoints with middleware. Credential requests
// need any valid bearer token; issuance, revocation and subject listing also
// need the issuer role.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(cfg.Metrics))
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(requesttime.Middleware(cfg.Clock))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg.RateLimit, ratelimitmodels.ClassPublic))
			cfg.Credentials.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(cfg.Validator, logger))
			r.Use(rateLimit(cfg.RateLimit, ratelimitmodels.ClassOperator))
			cfg.Credentials.RegisterAuthenticated(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(cfg.Validator, logger))
			r.Use(auth.RequireRole(jwttoken.RoleIssuer, logger))
			r.Use(rateLimit(cfg.RateLimit, ratelimitmodels.ClassOperator))
			cfg.Credentials.RegisterProtected(r)
		})
	})

	return r
}

func rateLimit(m *ratelimitmw.Middleware, class ratelimitmodels.EndpointClass) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return m.RateLimit(class)
}
