package models

import (
	"fmt"
	"strings"
)

// KeyPrefix represents the type of rate limit key.
type KeyPrefix string

const (
	KeyPrefixIP      KeyPrefix = "ip"
	KeyPrefixSubject KeyPrefix = "subject"
)

// RateLimitKey builds bucket keys. Identifiers are escaped so that a caller
// controlled value containing ':' cannot address another bucket.
type RateLimitKey struct {
	prefix     KeyPrefix
	identifier string
	class      EndpointClass
}

// NewRateLimitKey creates a rate limit key for IP or subject limits.
func NewRateLimitKey(prefix KeyPrefix, identifier string, class EndpointClass) RateLimitKey {
	return RateLimitKey{
		prefix:     prefix,
		identifier: sanitizeKeySegment(identifier),
		class:      class,
	}
}

// String returns the formatted key for storage lookup.
func (k RateLimitKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, k.identifier, k.class)
}

// sanitizeKeySegment escapes '_' to "__" first and then ':' to "_c", so no
// two distinct inputs produce the same output.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
