package authgate

import (
	"context"
	"errors"
)

// Signin performs the credential check under the failed-attempt state
// machine and, on success, returns a fresh session.
//
// Failure order is deliberate: an active lockout rejects before any hash
// work, so callers cannot probe lock state through timing, and a wrong
// password reports the same [ErrInvalidCredentials] as an unknown email.
func (e *Engine) Signin(ctx context.Context, email, plainPassword string) (*SessionResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := e.now()

	email = normalizeEmail(email)
	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricSigninFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, e.internalErr("load account", err)
	}

	if account.LockedUntil > 0 {
		now := e.now().Unix()
		if now < account.LockedUntil {
			e.metricInc(MetricSigninLocked)
			e.emitAudit(ctx, "signin", account, false, ErrAccountLocked)
			return nil, &AccountLockedError{
				MinutesRemaining: minutesRemaining(account.LockedUntil, now),
			}
		}
		// Lock expired: treat as Active again with a zeroed counter.
		account, err = e.clearLockout(ctx, account.ID)
		if err != nil {
			return nil, e.internalErr("clear expired lockout", err)
		}
	}

	ok, err := e.hasher.Verify(plainPassword, account.PasswordHash)
	if err != nil {
		return nil, e.internalErr("verify password", err)
	}
	if !ok {
		if err := e.registerFailedAttempt(ctx, account.ID); err != nil {
			return nil, e.internalErr("record failed attempt", err)
		}
		e.metricInc(MetricSigninFailure)
		e.emitAudit(ctx, "signin", account, false, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if !account.Verified {
		e.emitAudit(ctx, "signin", account, false, ErrAccountNotVerified)
		return nil, ErrAccountNotVerified
	}
	if !account.Enabled {
		e.emitAudit(ctx, "signin", account, false, ErrAccountDisabled)
		return nil, ErrAccountDisabled
	}

	if account.FailedAttempts > 0 || account.LockedUntil > 0 {
		account, err = e.clearLockout(ctx, account.ID)
		if err != nil {
			return nil, e.internalErr("reset failed attempts", err)
		}
	}

	result, err := e.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSigninSuccess)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricSigninLatency, e.now().Sub(start))
	}
	e.emitAudit(ctx, "signin", account, true, nil)
	return result, nil
}

// registerFailedAttempt advances the per-account counter and, at the
// configured maximum, transitions the account to Locked. The increment and
// the transition commit as one version-checked write, so concurrent
// failures cannot push the counter past the maximum without locking.
func (e *Engine) registerFailedAttempt(ctx context.Context, accountID string) error {
	lockedNow := false
	account, err := e.mutateAccount(ctx, accountID, func(a *Account) error {
		lockedNow = false
		if a.LockedUntil > 0 && e.now().Unix() < a.LockedUntil {
			// A concurrent failure already locked the account.
			return nil
		}
		a.FailedAttempts++
		if a.FailedAttempts >= e.config.Lockout.MaxFailedAttempts {
			a.FailedAttempts = e.config.Lockout.MaxFailedAttempts
			a.LockedUntil = e.now().Add(e.config.Lockout.LockoutDuration).Unix()
			lockedNow = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if lockedNow {
		e.metricInc(MetricLockoutTriggered)
		e.emitAudit(ctx, "lockout", account, true, nil)
	}
	return nil
}

// clearLockout zeroes the counter and lock deadline.
func (e *Engine) clearLockout(ctx context.Context, accountID string) (*Account, error) {
	return e.mutateAccount(ctx, accountID, func(a *Account) error {
		a.FailedAttempts = 0
		a.LockedUntil = 0
		return nil
	})
}

func minutesRemaining(lockedUntil, now int64) int {
	seconds := lockedUntil - now
	minutes := int((seconds + 59) / 60)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
