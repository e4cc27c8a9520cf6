package authgate

import (
	"context"
)

// Account is the full account record exchanged with an [AccountStore].
//
// Version is an optimistic concurrency token: Update writes succeed only
// when the stored version still matches, so concurrent counter/lockout
// mutations serialize at the store instead of clobbering each other.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Roles        []string
	// Verified flips true exactly once, on email verification.
	Verified bool
	// Enabled is false until email verification completes, and may be
	// cleared administratively afterwards.
	Enabled bool
	// Providers maps linked external identity providers to their subject
	// ids.
	Providers map[string]string
	// FailedAttempts counts consecutive failed credential checks.
	FailedAttempts int
	// LockedUntil is the lockout deadline in unix seconds, zero when the
	// account is not locked.
	LockedUntil int64
	CreatedAt   int64
	Version     uint64
}

// Clone returns a deep copy safe to mutate independently.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Roles != nil {
		out.Roles = append([]string(nil), a.Roles...)
	}
	if a.Providers != nil {
		out.Providers = make(map[string]string, len(a.Providers))
		for k, v := range a.Providers {
			out.Providers[k] = v
		}
	}
	return &out
}

// AccountStore is the durable storage collaborator for account records.
//
// Implementations must provide read-your-writes consistency and enforce
// email uniqueness on Create. Update must compare the record's Version
// against storage and fail [ErrConflict] without writing when they differ;
// on success the stored version advances.
type AccountStore interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	LinkProvider(ctx context.Context, accountID, provider, providerID string) error
}

// PasswordHasher is the password-hashing collaborator.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// Mailer is the outbound email collaborator. Links are fully composed by
// the engine; the mailer only delivers them.
type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
	SendPasswordReset(ctx context.Context, email, link string) error
}

// UserSummary is the caller-facing identity slice included in session
// results.
type UserSummary struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name,omitempty"`
	Roles    []string `json:"roles"`
}

// Profile is the summary plus account status, returned by [Engine.Profile].
type Profile struct {
	UserSummary
	Enabled   bool  `json:"enabled"`
	CreatedAt int64 `json:"created_at"`
}

// SessionResult is returned by [Engine.Signin] and [Engine.Refresh].
type SessionResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// IntrospectionResult is returned by [Engine.Introspect]. When Active is
// false every other field is zero.
type IntrospectionResult struct {
	Active    bool     `json:"active"`
	Subject   string   `json:"sub,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
}

// ExternalProfile is an already-normalized identity from a third-party
// provider, accepted by [Engine.UpsertExternalAccount].
type ExternalProfile struct {
	Provider   string
	ProviderID string
	Email      string
	FullName   string
}
