package authgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authgate/onetime"
	"github.com/MrEthical07/authgate/password"
	"github.com/MrEthical07/authgate/rate"
	"github.com/MrEthical07/authgate/refresh"
	"github.com/MrEthical07/authgate/token"
)

// Builder assembles an [Engine]. Collaborators not supplied explicitly fall
// back to defaults: Redis-backed token record stores when a client is given,
// in-memory stores otherwise, the built-in Argon2id hasher, and a no-op
// mailer. A Builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client

	accounts AccountStore
	hasher   PasswordHasher
	mailer   Mailer

	refreshStore refresh.RecordStore
	onetimeStore onetime.RecordStore

	auditSink AuditSink

	built bool
}

// New returns a Builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing key.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithRedis supplies the Redis client backing the default refresh and
// one-time record stores.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAccountStore supplies the durable account storage collaborator.
// Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithPasswordHasher overrides the built-in Argon2id hasher.
func (b *Builder) WithPasswordHasher(hasher PasswordHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithMailer supplies the outbound email collaborator.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithRefreshStore overrides the refresh record store.
func (b *Builder) WithRefreshStore(store refresh.RecordStore) *Builder {
	b.refreshStore = store
	return b
}

// WithOneTimeStore overrides the one-time token record store.
func (b *Builder) WithOneTimeStore(store onetime.RecordStore) *Builder {
	b.onetimeStore = store
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the signin latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and returns a
// ready engine. A second call fails.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.accounts == nil {
		return nil, errors.New("account store required")
	}

	// -------- TOKEN CODEC --------
	codec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- RECORD STORES --------
	refreshStore := b.refreshStore
	if refreshStore == nil {
		if b.redis != nil {
			refreshStore = refresh.NewRedisRecordStore(b.redis, "")
		} else {
			refreshStore = refresh.NewMemoryRecordStore()
		}
	}
	onetimeStore := b.onetimeStore
	if onetimeStore == nil {
		if b.redis != nil {
			onetimeStore = onetime.NewRedisRecordStore(b.redis, "")
		} else {
			onetimeStore = onetime.NewMemoryRecordStore()
		}
	}

	// -------- REFRESH REGISTRY --------
	registry, err := refresh.NewRegistry(codec, refreshStore, cfg.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD HASHER --------
	hasher := b.hasher
	if hasher == nil {
		argon, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = argon
	}

	// -------- RATE LIMITER --------
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = rate.NewLimiter(rate.Config{
			Capacity:        cfg.RateLimit.BurstCapacity,
			RefillPerMinute: cfg.RateLimit.ReplenishPerMinute,
		})
		if err != nil {
			return nil, err
		}
	}

	mailer := b.mailer
	if mailer == nil {
		mailer = NoOpMailer{}
	}

	engine := newEngine(cfg, engineDeps{
		codec:    codec,
		registry: registry,
		onetime:  onetime.NewManager(onetimeStore),
		limiter:  limiter,
		accounts: b.accounts,
		hasher:   hasher,
		mailer:   mailer,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
	})

	b.built = true

	return engine, nil
}
