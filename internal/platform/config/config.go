package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend modes selectable through the environment.
const (
	ModeMemory   = "memory"
	ModeFile     = "file"
	ModePebble   = "pebble"
	ModeKubo     = "kubo"
	ModePostgres = "postgres"
	ModeRedis    = "redis"
)

// DefaultJWTSigningKey is the local development key. Validate refuses it in
// production.
const DefaultJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	Environment   string
	JWTSigningKey string
	OTELEnabled   bool

	Credential Credential
	Database   Database
	Redis      RedisConfig
	Kafka      Kafka
	RateLimit  RateLimit
}

// Credential selects the engine's backends and lifetimes.
type Credential struct {
	IssuerID        string
	KeysDir         string
	KeystoreMode    string
	CredentialTTL   time.Duration
	ChallengeTTL    time.Duration
	RequestTTL      time.Duration
	ContentMode     string
	IPFSAPIURL      string
	IPFSTimeout     time.Duration
	PebblePath      string
	RegistryMode    string
	RegistryTimeout time.Duration
	ChallengeMode   string
	MetadataMode    string
	// TrustedIssuers maps foreign issuer DIDs to multibase public keys
	// accepted at presentation.
	TrustedIssuers map[string]string
}

// Database holds the Postgres connection settings.
type Database struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds the Redis client settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds lifecycle event publishing settings. Empty Brokers disables
// Kafka and events go to the log. With Outbox set and a database
// configured, events are staged in PostgreSQL and relayed.
type Kafka struct {
	Brokers        []string
	LifecycleTopic string
	Outbox         bool
}

// RateLimit sets sliding-window allowances. Zero requests disables a class.
// Windows live in Redis when CHALLENGE_MODE is redis, in memory otherwise.
type RateLimit struct {
	PublicRequests   int
	OperatorRequests int
	Window           time.Duration
}

var (
	CredentialTTL   = 365 * 24 * time.Hour
	ChallengeTTL    = 5 * time.Minute
	RequestTTL      = 7 * 24 * time.Hour
	IPFSTimeout     = 5 * time.Second
	RegistryTimeout = 3 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          envOr("IDVERSE_ADDR", ":8080"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Environment:   envOr("ENVIRONMENT", "local"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", DefaultJWTSigningKey),
		OTELEnabled:   os.Getenv("OTEL_ENABLED") == "true",
		Credential: Credential{
			IssuerID:        envOr("ISSUER_ID", "did:example:issuer"),
			KeysDir:         envOr("ISSUER_KEYS_DIR", "./keys"),
			KeystoreMode:    envOr("KEYSTORE_MODE", ModeFile),
			CredentialTTL:   durationOr("CREDENTIAL_TTL", CredentialTTL),
			ChallengeTTL:    durationOr("CHALLENGE_TTL", ChallengeTTL),
			RequestTTL:      durationOr("REQUEST_TTL", RequestTTL),
			ContentMode:     envOr("IPFS_MODE", ModeMemory),
			IPFSAPIURL:      envOr("IPFS_API_URL", "http://127.0.0.1:5001"),
			IPFSTimeout:     durationOr("IPFS_TIMEOUT", IPFSTimeout),
			PebblePath:      envOr("PEBBLE_PATH", "./data/content"),
			RegistryMode:    envOr("CHAIN_MODE", ModeMemory),
			RegistryTimeout: durationOr("REGISTRY_TIMEOUT", RegistryTimeout),
			ChallengeMode:   envOr("CHALLENGE_MODE", ModeMemory),
			MetadataMode:    envOr("METADATA_MODE", ModeMemory),
			TrustedIssuers:  splitPairs(os.Getenv("TRUSTED_ISSUERS")),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: intOr("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: intOr("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:        splitList(os.Getenv("KAFKA_BROKERS")),
			LifecycleTopic: envOr("KAFKA_LIFECYCLE_TOPIC", "vc.lifecycle"),
			Outbox:         boolOr("KAFKA_OUTBOX", true),
		},
		RateLimit: RateLimit{
			PublicRequests:   intOr("RATE_LIMIT_PUBLIC", 120),
			OperatorRequests: intOr("RATE_LIMIT_OPERATOR", 60),
			Window:           durationOr("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// Validate rejects backend selections that cannot be satisfied.
func (s Server) Validate() error {
	c := s.Credential
	if err := oneOf("KEYSTORE_MODE", c.KeystoreMode, ModeFile, ModeMemory); err != nil {
		return err
	}
	if err := oneOf("IPFS_MODE", c.ContentMode, ModeMemory, ModePebble, ModeKubo); err != nil {
		return err
	}
	if err := oneOf("CHAIN_MODE", c.RegistryMode, ModeMemory, ModePostgres); err != nil {
		return err
	}
	if err := oneOf("CHALLENGE_MODE", c.ChallengeMode, ModeMemory, ModeRedis); err != nil {
		return err
	}
	if err := oneOf("METADATA_MODE", c.MetadataMode, ModeMemory, ModePostgres); err != nil {
		return err
	}
	if strings.TrimSpace(c.IssuerID) == "" {
		return fmt.Errorf("ISSUER_ID is required")
	}
	if (c.RegistryMode == ModePostgres || c.MetadataMode == ModePostgres) && s.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when CHAIN_MODE or METADATA_MODE is postgres")
	}
	if c.ChallengeMode == ModeRedis && s.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when CHALLENGE_MODE is redis")
	}
	if c.ContentMode == ModeKubo && c.IPFSAPIURL == "" {
		return fmt.Errorf("IPFS_API_URL is required when IPFS_MODE is kubo")
	}
	if c.ContentMode == ModePebble && c.PebblePath == "" {
		return fmt.Errorf("PEBBLE_PATH is required when IPFS_MODE is pebble")
	}
	if c.ChallengeTTL <= 0 {
		return fmt.Errorf("CHALLENGE_TTL must be positive")
	}
	if c.RequestTTL <= 0 {
		return fmt.Errorf("REQUEST_TTL must be positive")
	}
	if s.RateLimit.PublicRequests < 0 || s.RateLimit.OperatorRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_PUBLIC and RATE_LIMIT_OPERATOR must not be negative")
	}
	if s.Environment == "production" && s.JWTSigningKey == DefaultJWTSigningKey {
		return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), value)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitPairs parses "did:a=z6Mk...,did:b=z6Mk..." into a map. The DID itself
// contains colons, so entries split on the last '='.
func splitPairs(v string) map[string]string {
	out := make(map[string]string)
	for _, entry := range splitList(v) {
		i := strings.LastIndex(entry, "=")
		if i <= 0 || i == len(entry)-1 {
			continue
		}
		out[strings.TrimSpace(entry[:i])] = strings.TrimSpace(entry[i+1:])
	}
	return out
}
