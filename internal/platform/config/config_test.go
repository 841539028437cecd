package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"IDVERSE_ADDR", "CHAIN_MODE", "IPFS_MODE", "CHALLENGE_TTL", "REQUEST_TTL", "KAFKA_BROKERS", "KAFKA_OUTBOX"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ModeMemory, cfg.Credential.RegistryMode)
	assert.Equal(t, ModeMemory, cfg.Credential.ContentMode)
	assert.Equal(t, 5*time.Minute, cfg.Credential.ChallengeTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.Credential.CredentialTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Credential.RequestTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "vc.lifecycle", cfg.Kafka.LifecycleTopic)
	assert.True(t, cfg.Kafka.Outbox)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("IDVERSE_ADDR", ":9090")
	t.Setenv("CHAIN_MODE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/idverse")
	t.Setenv("CHALLENGE_TTL", "90s")
	t.Setenv("IPFS_TIMEOUT", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("KAFKA_OUTBOX", "false")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, ModePostgres, cfg.Credential.RegistryMode)
	assert.Equal(t, 90*time.Second, cfg.Credential.ChallengeTTL)
	assert.Equal(t, IPFSTimeout, cfg.Credential.IPFSTimeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Outbox)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "ENVIRONMENT", "JWT_SIGNING_KEY", "CHAIN_MODE", "METADATA_MODE", "CHALLENGE_MODE", "IPFS_MODE", "KEYSTORE_MODE", "CHALLENGE_TTL"} {
		t.Setenv(key, "")
	}

	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Server) {}},
		{
			name:    "unknown content mode",
			mutate:  func(s *Server) { s.Credential.ContentMode = "s3" },
			wantErr: "IPFS_MODE",
		},
		{
			name:    "postgres registry without database",
			mutate:  func(s *Server) { s.Credential.RegistryMode = ModePostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "postgres metadata without database",
			mutate:  func(s *Server) { s.Credential.MetadataMode = ModePostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "redis challenges without redis",
			mutate:  func(s *Server) { s.Credential.ChallengeMode = ModeRedis },
			wantErr: "REDIS_URL",
		},
		{
			name:    "non-positive challenge ttl",
			mutate:  func(s *Server) { s.Credential.ChallengeTTL = 0 },
			wantErr: "CHALLENGE_TTL",
		},
		{
			name:    "non-positive request ttl",
			mutate:  func(s *Server) { s.Credential.RequestTTL = 0 },
			wantErr: "REQUEST_TTL",
		},
		{
			name:    "default signing key in production",
			mutate:  func(s *Server) { s.Environment = "production" },
			wantErr: "JWT_SIGNING_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTrustedIssuers(t *testing.T) {
	t.Setenv("TRUSTED_ISSUERS", "did:example:acme=z6MkAcme, did:web:gov.example=z6MkGov,broken,=z6Mk,did:x=")

	cfg := FromEnv()
	assert.Equal(t, map[string]string{
		"did:example:acme":    "z6MkAcme",
		"did:web:gov.example": "z6MkGov",
	}, cfg.Credential.TrustedIssuers)
}

func TestRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PUBLIC", "")
	t.Setenv("RATE_LIMIT_OPERATOR", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := FromEnv()
	assert.Equal(t, 120, cfg.RateLimit.PublicRequests)
	assert.Equal(t, 0, cfg.RateLimit.OperatorRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.PublicRequests = -1
	assert.Error(t, cfg.Validate())
}
