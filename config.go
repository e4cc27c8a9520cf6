package authgate

import (
	"errors"
	"time"
)

// Config carries every tunable the engine recognizes. Zero values are
// filled from defaults by the [Builder]; a Config is immutable once the
// engine is built.
type Config struct {
	Token         TokenConfig
	Lockout       LockoutConfig
	RateLimit     RateLimitConfig
	Verification  VerificationConfig
	PasswordReset PasswordResetConfig
	Password      PasswordConfig
	Account       AccountConfig
	Mail          MailConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds the signing key and token lifetimes.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key, at least 32 bytes.
	Secret []byte
	// AccessTTL bounds access-token life.
	AccessTTL time.Duration
	// RefreshTTL bounds refresh-token and record life.
	RefreshTTL time.Duration
	// Issuer, when set, is stamped and enforced on every token.
	Issuer string
	// Leeway tolerates clock skew during validation, at most two minutes.
	Leeway time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes the failed-attempt state machine.
type LockoutConfig struct {
	// MaxFailedAttempts is the counter value that triggers a lock.
	MaxFailedAttempts int
	// LockoutDuration is the length of the lock window.
	LockoutDuration time.Duration
}

// RateLimitConfig tunes the per-client token bucket in front of the
// authentication surface.
type RateLimitConfig struct {
	Enabled            bool
	BurstCapacity      int
	ReplenishPerMinute int
}

// VerificationConfig tunes email verification tokens.
type VerificationConfig struct {
	TokenTTL time.Duration
}

// PasswordResetConfig tunes password reset tokens.
type PasswordResetConfig struct {
	TokenTTL time.Duration
}

// PasswordConfig holds Argon2id parameters for the built-in hasher. Ignored
// when a custom [PasswordHasher] is injected.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AccountConfig tunes account creation.
type AccountConfig struct {
	// DefaultRole is granted to every new account.
	DefaultRole string
}

// MailConfig tunes outbound mail link construction.
type MailConfig struct {
	// BaseURL prefixes verification and reset links handed to the Mailer.
	BaseURL string
}

// AuditConfig tunes the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the engine defaults. The signing secret is left
// empty and must be supplied before Build.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: 5,
			LockoutDuration:   15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			BurstCapacity:      20,
			ReplenishPerMinute: 60,
		},
		Verification: VerificationConfig{
			TokenTTL: 24 * time.Hour,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: time.Hour,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			DefaultRole: "user",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be in [0, 2m]")
	}

	// Lockout
	if c.Lockout.MaxFailedAttempts <= 0 {
		return errors.New("Lockout MaxFailedAttempts must be > 0")
	}
	if c.Lockout.LockoutDuration <= 0 {
		return errors.New("Lockout LockoutDuration must be > 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.BurstCapacity <= 0 {
			return errors.New("RateLimit BurstCapacity must be > 0")
		}
		if c.RateLimit.ReplenishPerMinute <= 0 {
			return errors.New("RateLimit ReplenishPerMinute must be > 0")
		}
	}

	// One-time token lifetimes
	if c.Verification.TokenTTL <= 0 {
		return errors.New("Verification TokenTTL must be > 0")
	}
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}

	// Account
	if c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
