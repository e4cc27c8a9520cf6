package authgate

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrEthical07/authgate/onetime"
)

// Signup creates a disabled account and issues an email verification token
// for delivery. The account cannot sign in until [Engine.VerifyEmail]
// completes.
func (e *Engine) Signup(ctx context.Context, email, plainPassword, fullName string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(plainPassword); err != nil {
		return err
	}

	digest, err := e.hasher.Hash(plainPassword)
	if err != nil {
		return e.internalErr("hash password", err)
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: digest,
		Roles:        []string{e.config.Account.DefaultRole},
		Verified:     false,
		Enabled:      false,
		CreatedAt:    e.now().Unix(),
		Version:      1,
	}

	if err := e.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, "signup", account, false, err)
			return ErrEmailAlreadyUsed
		}
		return e.internalErr("create account", err)
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, "signup", account, true, nil)

	tok, err := e.onetime.Issue(ctx, account.ID, onetime.PurposeVerify, e.config.Verification.TokenTTL)
	if err != nil {
		return e.internalErr("issue verification token", err)
	}
	if err := e.mailer.SendVerification(ctx, account.Email, e.verificationLink(tok)); err != nil {
		e.logMailFailure("verification", err)
	}

	return nil
}

// VerifyEmail consumes a verification token and enables the owning account.
// The token is single-use; replays fail [ErrTokenInvalid].
func (e *Engine) VerifyEmail(ctx context.Context, tok string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	accountID, err := e.onetime.Consume(ctx, tok, onetime.PurposeVerify)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		return e.mapOneTimeErr("consume verification token", err)
	}

	account, err := e.mutateAccount(ctx, accountID, func(a *Account) error {
		a.Verified = true
		a.Enabled = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Account vanished between issuance and consumption.
			e.metricInc(MetricVerifyFailure)
			return ErrTokenInvalid
		}
		return e.internalErr("enable account", err)
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, "verify_email", account, true, nil)
	return nil
}
