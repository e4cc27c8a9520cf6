package authgate

import (
	"context"
	"errors"

	"github.com/MrEthical07/authgate/onetime"
)

// ForgotPassword issues a one-time reset token for the account owning
// email and hands the composed link to the Mailer. For an unknown email it
// silently succeeds with no side effect, so the caller learns nothing about
// which addresses hold accounts.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return e.internalErr("load account", err)
	}

	tok, err := e.onetime.Issue(ctx, account.ID, onetime.PurposeReset, e.config.PasswordReset.TokenTTL)
	if err != nil {
		return e.internalErr("issue reset token", err)
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, "forgot_password", account, true, nil)

	if err := e.mailer.SendPasswordReset(ctx, account.Email, e.resetLink(tok)); err != nil {
		e.logMailFailure("password reset", err)
	}
	return nil
}

// ResetPassword consumes a reset token, replaces the password digest, and
// clears any lockout state. The token is single-use; replays fail
// [ErrTokenInvalid].
func (e *Engine) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	accountID, err := e.onetime.Consume(ctx, tok, onetime.PurposeReset)
	if err != nil {
		e.metricInc(MetricResetFailure)
		return e.mapOneTimeErr("consume reset token", err)
	}

	digest, err := e.hasher.Hash(newPassword)
	if err != nil {
		return e.internalErr("hash password", err)
	}

	account, err := e.mutateAccount(ctx, accountID, func(a *Account) error {
		a.PasswordHash = digest
		a.FailedAttempts = 0
		a.LockedUntil = 0
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricResetFailure)
			return ErrTokenInvalid
		}
		return e.internalErr("replace password", err)
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, "reset_password", account, true, nil)
	return nil
}
