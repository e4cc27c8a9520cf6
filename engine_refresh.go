package authgate

import (
	"context"
	"errors"

	"github.com/MrEthical07/authgate/token"
)

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is echoed back unchanged: identifiers are not
// rotated, the same token keeps working until its own expiry or signout.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.registry.Validate(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, e.mapRefreshErr("validate refresh token", err)
	}

	account, err := e.accounts.GetByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricRefreshFailure)
			return nil, ErrTokenInvalid
		}
		return nil, e.internalErr("load account", err)
	}
	if !account.Enabled {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, "refresh", account, false, ErrAccountDisabled)
		return nil, ErrAccountDisabled
	}

	access, err := e.codec.Issue(account.ID, token.TypeAccess, e.now().Add(e.config.Token.AccessTTL), token.Extra{
		Email: account.Email,
		Roles: account.Roles,
	})
	if err != nil {
		return nil, e.internalErr("issue access token", err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, "refresh", account, true, nil)

	return &SessionResult{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(e.config.Token.AccessTTL.Seconds()),
		User:         summaryOf(account),
	}, nil
}

// Signout revokes the refresh token's record. Revoking an already-revoked
// token succeeds silently; a token that cannot be parsed or located fails
// [ErrTokenInvalid].
func (e *Engine) Signout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.registry.Revoke(ctx, refreshToken); err != nil {
		return e.mapRefreshErr("revoke refresh token", err)
	}

	e.metricInc(MetricSignout)
	e.emitAudit(ctx, "signout", nil, true, nil)
	return nil
}
