package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"idverse/internal/credential/challenge"
	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/events"
	"idverse/internal/credential/outbox"
	"idverse/internal/credential/registry"
	"idverse/internal/credential/service"
	"idverse/internal/credential/signing"
	"idverse/internal/credential/store"
	"idverse/internal/platform/config"
	"idverse/internal/platform/database"
	"idverse/internal/platform/health"
	"idverse/internal/platform/kafka/producer"
	"idverse/internal/platform/redis"
	ratelimitmw "idverse/internal/ratelimit/middleware"
	ratelimitmodels "idverse/internal/ratelimit/models"
	"idverse/internal/ratelimit/store/bucket"
	"idverse/migrations"
	"idverse/pkg/platform/circuit"
)

// backends holds the engine's collaborators as selected by configuration,
// plus whatever needs closing on shutdown.
type backends struct {
	signer      *signing.Signer
	keyResolver service.KeyResolver
	contents    *contentstore.Store
	registry    service.Registry
	challenges  *challenge.Issuer
	metadata    service.MetadataStore
	requests    service.RequestStore
	publisher   service.Publisher
	redis       *redis.Client
	rateLimit   *ratelimitmw.Middleware
	// relay is set when lifecycle events go through the outbox.
	relay *outbox.Relay
	// buckets is the in-memory window store that needs periodic purging.
	buckets *bucket.InMemoryBucketStore

	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

func (b *backends) onClose(name string, c io.Closer) {
	b.closers = append(b.closers, namedCloser{name: name, c: c})
}

// close releases resources in reverse acquisition order.
func (b *backends) close(log *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		nc := b.closers[i]
		if err := nc.c.Close(); err != nil {
			log.Warn("failed to close backend", "backend", nc.name, "error", err)
		}
	}
}

func buildBackends(ctx context.Context, cfg config.Server, log *slog.Logger, hh *health.Handler) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.close(log)
		}
	}()
	c := cfg.Credential

	if err := b.buildSigner(ctx, c, log); err != nil {
		return nil, err
	}
	if err := b.buildContentStore(ctx, c, log, hh); err != nil {
		return nil, err
	}

	var pool *database.Pool
	if c.RegistryMode == config.ModePostgres || c.MetadataMode == config.ModePostgres {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.Database.URL
		dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		pool, err = database.New(ctx, dbCfg, log)
		if err != nil {
			return nil, err
		}
		b.onClose("postgres", pool)
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		hh.RegisterCheck("postgres", pool.Health)
	}

	switch c.RegistryMode {
	case config.ModePostgres:
		b.registry = registry.NewPostgres(pool.DB(), registry.WithQueryTimeout(c.RegistryTimeout))
	default:
		b.registry = registry.NewMemory()
	}

	// Credential requests live next to the credential bookkeeping.
	switch c.MetadataMode {
	case config.ModePostgres:
		pg := store.NewPostgres(pool.DB())
		b.metadata, b.requests = pg, pg
	default:
		mem := store.NewInMemoryStore()
		b.metadata, b.requests = mem, mem
	}

	var challengeStore challenge.Store
	switch c.ChallengeMode {
	case config.ModeRedis:
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.redis = rc
		b.onClose("redis", rc)
		hh.RegisterCheck("redis", rc.Health)
		challengeStore = challenge.NewRedisStore(rc.Client)
	default:
		challengeStore = challenge.NewMemoryStore()
	}
	b.challenges = challenge.NewIssuer(challengeStore,
		challenge.WithTTL(c.ChallengeTTL),
		challenge.WithLogger(log),
	)

	var publishers events.Multi
	publishers = append(publishers, events.NewLogPublisher(log))
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := producer.New(producer.Config{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: "idverse",
			Retries:  3,
		}, log)
		if err != nil {
			return nil, err
		}
		b.onClose("kafka", p)
		hh.RegisterCheck("kafka", p.Health)
		if pool != nil && cfg.Kafka.Outbox {
			staged := outbox.NewPostgresStore(pool.DB())
			b.relay = outbox.NewRelay(staged, p, cfg.Kafka.LifecycleTopic,
				outbox.WithLogger(log),
				outbox.WithMetrics(outbox.NewMetrics(prometheus.DefaultRegisterer)),
			)
			publishers = append(publishers, events.NewOutboxPublisher(staged, nil))
		} else {
			publishers = append(publishers, events.NewKafkaPublisher(p, cfg.Kafka.LifecycleTopic))
		}
	}
	b.publisher = publishers

	b.buildRateLimit(cfg.RateLimit, log)
	return b, nil
}

// buildRateLimit keeps windows in Redis when a client is configured, falling
// back to local windows while Redis is failing.
func (b *backends) buildRateLimit(c config.RateLimit, log *slog.Logger) {
	b.buckets = bucket.NewInMemoryBucketStore()
	opts := []ratelimitmw.Option{
		ratelimitmw.WithLimit(ratelimitmodels.ClassPublic, ratelimitmodels.Limit{Requests: c.PublicRequests, Window: c.Window}),
		ratelimitmw.WithLimit(ratelimitmodels.ClassOperator, ratelimitmodels.Limit{Requests: c.OperatorRequests, Window: c.Window}),
		ratelimitmw.WithLogger(log),
	}
	if b.redis == nil {
		b.rateLimit = ratelimitmw.New(b.buckets, opts...)
		return
	}
	breaker := circuit.New("ratelimit", circuit.WithStateChangeHook(func(name string, to circuit.State) {
		log.Warn("rate limit circuit changed state", "circuit", name, "state", to.String())
	}))
	opts = append(opts, ratelimitmw.WithFallback(b.buckets, breaker))
	b.rateLimit = ratelimitmw.New(bucket.NewRedisBucketStore(b.redis.Client), opts...)
}

func (b *backends) buildSigner(ctx context.Context, c config.Credential, log *slog.Logger) error {
	var keys signing.KeyStore
	switch c.KeystoreMode {
	case config.ModeMemory:
		keys = signing.NewMemoryKeyStore()
	default:
		fs, err := signing.NewFileKeyStore(c.KeysDir)
		if err != nil {
			return err
		}
		keys = fs
	}

	handle, err := signing.GenerateOrLoadKeypair(ctx, keys, c.IssuerID)
	if err != nil {
		return fmt.Errorf("load issuer key: %w", err)
	}
	log.Info("issuer key ready", "key", handle, "generated", handle.Generated())
	b.signer = signing.New(handle)

	if len(c.TrustedIssuers) == 0 {
		return nil
	}
	resolver := service.NewStaticKeyResolver()
	if err := resolver.Add(b.signer.IssuerID(), b.signer.PublicKeyMultibase()); err != nil {
		return err
	}
	for issuer, key := range c.TrustedIssuers {
		if err := resolver.Add(issuer, key); err != nil {
			return fmt.Errorf("trusted issuer %s: %w", issuer, err)
		}
	}
	b.keyResolver = resolver
	return nil
}

func (b *backends) buildContentStore(_ context.Context, c config.Credential, log *slog.Logger, hh *health.Handler) error {
	var backend contentstore.Backend
	switch c.ContentMode {
	case config.ModePebble:
		pb, err := contentstore.OpenPebble(c.PebblePath, nil)
		if err != nil {
			return err
		}
		b.onClose("pebble", pb)
		backend = pb
	case config.ModeKubo:
		remote, err := contentstore.NewIPFSBackend(c.IPFSAPIURL,
			contentstore.WithTimeout(c.IPFSTimeout),
			contentstore.WithIPFSLogger(log),
		)
		if err != nil {
			return err
		}
		hh.RegisterCheck("ipfs", remote.Ping)
		mirror, err := contentstore.OpenPebble(c.PebblePath, nil)
		if err != nil {
			return err
		}
		b.onClose("pebble", mirror)
		breaker := circuit.New("ipfs", circuit.WithStateChangeHook(func(name string, to circuit.State) {
			log.Warn("content store circuit changed state", "circuit", name, "state", to.String())
		}))
		backend = contentstore.NewResilientBackend(remote, mirror, breaker, log)
	default:
		backend = contentstore.NewMemoryBackend()
	}
	b.contents = contentstore.New(backend, contentstore.WithLogger(log))
	return nil
}
