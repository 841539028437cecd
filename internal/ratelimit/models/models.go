package models

import "time"

// EndpointClass groups routes that share a limit.
type EndpointClass string

const (
	// ClassPublic covers unauthenticated presentation, status and challenge
	// routes, limited per client IP.
	ClassPublic EndpointClass = "public"
	// ClassOperator covers issuer-only routes, limited per token subject.
	ClassOperator EndpointClass = "operator"
)

// Limit is a sliding-window allowance.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Enabled reports whether the limit constrains anything.
func (l Limit) Enabled() bool {
	return l.Requests > 0 && l.Window > 0
}

// RateLimitResult is the outcome of a single check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewResult fills RetryAfter from resetAt when the request was refused.
func NewResult(allowed bool, limit, remaining int, resetAt, now time.Time) *RateLimitResult {
	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !allowed {
		res.RetryAfter = max(int(resetAt.Sub(now).Seconds()), 1)
	}
	return res
}
