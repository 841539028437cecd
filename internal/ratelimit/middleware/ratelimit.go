package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"idverse/internal/ratelimit/models"
	"idverse/pkg/platform/circuit"
	"idverse/pkg/platform/httputil"
	"idverse/pkg/requestcontext"
)

// Store records requests against a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error)
}

type Middleware struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
}

type Option func(*Middleware)

// WithLimit sets the allowance for a class. Classes without an enabled limit
// pass through.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[class] = limit
	}
}

// WithFallback serves checks from fallback while breaker is open.
func WithFallback(fallback Store, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(store Store, opts ...Option) *Middleware {
	m := &Middleware{
		primary: store,
		limits:  make(map[models.EndpointClass]models.Limit),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit limits public routes per client IP and operator routes per token
// subject. Limiter errors let the request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limit, ok := m.limits[class]
		if !ok || !limit.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := bucketKey(ctx, class)

			result, degraded, err := m.check(ctx, key.String(), limit)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"retry_after", result.RetryAfter,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, bool, error) {
	result, err := m.primary.Allow(ctx, key, limit)
	if err == nil {
		if m.breaker != nil {
			m.breaker.RecordSuccess()
		}
		return result, false, nil
	}
	if m.breaker == nil || m.fallback == nil {
		return nil, false, err
	}
	if useFallback, _ := m.breaker.RecordFailure(); !useFallback {
		return nil, false, err
	}
	result, err = m.fallback.Allow(ctx, key, limit)
	return result, true, err
}

func bucketKey(ctx context.Context, class models.EndpointClass) models.RateLimitKey {
	if class == models.ClassOperator {
		if subject := requestcontext.Subject(ctx); subject != "" {
			return models.NewRateLimitKey(models.KeyPrefixSubject, subject, class)
		}
	}
	return models.NewRateLimitKey(models.KeyPrefixIP, requestcontext.ClientIP(ctx), class)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
