package authgate

import (
	"context"
	"errors"
)

// Profile returns the account's identity slice and status.
func (e *Engine) Profile(ctx context.Context, accountID string) (*Profile, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, e.internalErr("load account", err)
	}

	return &Profile{
		UserSummary: summaryOf(account),
		Enabled:     account.Enabled,
		CreatedAt:   account.CreatedAt,
	}, nil
}
