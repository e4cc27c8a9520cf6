package authgate

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/authgate/onetime"
	"github.com/MrEthical07/authgate/rate"
	"github.com/MrEthical07/authgate/refresh"
	"github.com/MrEthical07/authgate/token"
)

// Engine orchestrates the credential flows: signup, verification, signin
// with progressive lockout, refresh, signout, password reset, and
// introspection.
//
// Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	config   Config
	codec    *token.Codec
	registry *refresh.Registry
	onetime  *onetime.Manager
	limiter  *rate.Limiter
	accounts AccountStore
	hasher   PasswordHasher
	mailer   Mailer
	audit    *auditDispatcher
	metrics  *Metrics
	now      func() time.Time
}

type engineDeps struct {
	codec    *token.Codec
	registry *refresh.Registry
	onetime  *onetime.Manager
	limiter  *rate.Limiter
	accounts AccountStore
	hasher   PasswordHasher
	mailer   Mailer
	audit    *auditDispatcher
	metrics  *Metrics
}

func newEngine(cfg Config, deps engineDeps) *Engine {
	return &Engine{
		config:   cfg,
		codec:    deps.codec,
		registry: deps.registry,
		onetime:  deps.onetime,
		limiter:  deps.limiter,
		accounts: deps.accounts,
		hasher:   deps.hasher,
		mailer:   deps.mailer,
		audit:    deps.audit,
		metrics:  deps.metrics,
		now:      time.Now,
	}
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Allow reports whether a request from clientKey is admitted by the rate
// limiter. Transport layers call this before any engine operation; a false
// return means the request must be rejected without reaching the flows.
// Always true when rate limiting is disabled.
func (e *Engine) Allow(clientKey string) bool {
	if e == nil {
		return false
	}
	if e.limiter == nil {
		return true
	}
	return e.limiter.Allow(clientKey)
}

// AuditDropped reports how many audit events were discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, account *Account, success bool, opErr error) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		Success:   success,
	}
	if account != nil {
		event.AccountID = account.ID
		event.Email = account.Email
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(ctx, event)
}

// internalErr hides backend detail from the caller. The original error is
// logged, the caller sees only [ErrUnavailable].
func (e *Engine) internalErr(op string, err error) error {
	log.Printf("authgate: %s: %v", op, err)
	return ErrUnavailable
}

func summaryOf(account *Account) UserSummary {
	return UserSummary{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		Roles:    append([]string(nil), account.Roles...),
	}
}

// issueSession mints a fresh access token and refresh token pair for
// account.
func (e *Engine) issueSession(ctx context.Context, account *Account) (*SessionResult, error) {
	access, err := e.codec.Issue(account.ID, token.TypeAccess, e.now().Add(e.config.Token.AccessTTL), token.Extra{
		Email: account.Email,
		Roles: account.Roles,
	})
	if err != nil {
		return nil, e.internalErr("issue access token", err)
	}

	refreshToken, err := e.registry.Issue(ctx, refresh.Subject{
		AccountID: account.ID,
		Email:     account.Email,
		Roles:     account.Roles,
	})
	if err != nil {
		return nil, e.internalErr("issue refresh token", err)
	}

	return &SessionResult{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(e.config.Token.AccessTTL.Seconds()),
		User:         summaryOf(account),
	}, nil
}

const maxUpdateRetries = 4

// mutateAccount applies mutate to the account under optimistic concurrency:
// read, mutate, version-checked write, retried on conflict. mutate runs on a
// private copy and may be invoked several times; it must be pure with
// respect to anything but its argument.
func (e *Engine) mutateAccount(ctx context.Context, id string, mutate func(*Account) error) (*Account, error) {
	for i := 0; i < maxUpdateRetries; i++ {
		stored, err := e.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		account := stored.Clone()
		if err := mutate(account); err != nil {
			return nil, err
		}

		err = e.accounts.Update(ctx, account)
		if err == nil {
			return account, nil
		}
		if errors.Is(err, ErrConflict) {
			continue
		}
		return nil, err
	}

	return nil, ErrConflict
}

// mapOneTimeErr converts onetime package failures to user-facing kinds.
func (e *Engine) mapOneTimeErr(op string, err error) error {
	switch {
	case errors.Is(err, onetime.ErrInvalid):
		return ErrTokenInvalid
	default:
		return e.internalErr(op, err)
	}
}

// mapRefreshErr converts refresh package failures to user-facing kinds.
func (e *Engine) mapRefreshErr(op string, err error) error {
	switch {
	case errors.Is(err, refresh.ErrInvalid):
		return ErrTokenInvalid
	default:
		return e.internalErr(op, err)
	}
}
