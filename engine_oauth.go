package authgate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// UpsertExternalAccount accepts an already-normalized provider profile and
// either creates an enabled account for it or links the provider identity
// to the existing account with the same email. Linking the same provider
// twice is a no-op.
//
// Profile exchange with the provider happens outside the engine; by the
// time this is called the identity is trusted.
func (e *Engine) UpsertExternalAccount(ctx context.Context, profile ExternalProfile) (UserSummary, error) {
	if e == nil {
		return UserSummary{}, ErrEngineNotReady
	}

	if profile.Provider == "" {
		return UserSummary{}, &ValidationError{Field: "provider", Reason: "required"}
	}
	if profile.ProviderID == "" {
		return UserSummary{}, &ValidationError{Field: "provider_id", Reason: "required"}
	}
	email := normalizeEmail(profile.Email)
	if err := ValidateEmail(email); err != nil {
		return UserSummary{}, err
	}

	account, err := e.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return e.linkProvider(ctx, account, profile)
	case errors.Is(err, ErrAccountNotFound):
		// Fall through to creation.
	default:
		return UserSummary{}, e.internalErr("load account", err)
	}

	account = &Account{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: profile.FullName,
		Roles:    []string{e.config.Account.DefaultRole},
		// The provider vouched for the email; no verification round-trip.
		Verified:  true,
		Enabled:   true,
		Providers: map[string]string{profile.Provider: profile.ProviderID},
		CreatedAt: e.now().Unix(),
		Version:   1,
	}
	if err := e.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			// Lost a creation race; link to the winner instead.
			existing, getErr := e.accounts.GetByEmail(ctx, email)
			if getErr != nil {
				return UserSummary{}, e.internalErr("load account", getErr)
			}
			return e.linkProvider(ctx, existing, profile)
		}
		return UserSummary{}, e.internalErr("create account", err)
	}

	e.metricInc(MetricExternalLink)
	e.emitAudit(ctx, "external_upsert", account, true, nil)
	return summaryOf(account), nil
}

func (e *Engine) linkProvider(ctx context.Context, account *Account, profile ExternalProfile) (UserSummary, error) {
	if existing, ok := account.Providers[profile.Provider]; ok && existing == profile.ProviderID {
		return summaryOf(account), nil
	}

	if err := e.accounts.LinkProvider(ctx, account.ID, profile.Provider, profile.ProviderID); err != nil {
		return UserSummary{}, e.internalErr("link provider", err)
	}

	e.metricInc(MetricExternalLink)
	e.emitAudit(ctx, "external_link", account, true, nil)
	return summaryOf(account), nil
}
