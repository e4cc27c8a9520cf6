package onetime

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authgate/internal"
	"github.com/google/uuid"
)

// Purpose tags a one-time token with the flow it may redeem.
type Purpose uint8

const (
	// PurposeVerify backs email verification.
	PurposeVerify Purpose = iota
	// PurposeReset backs password reset.
	PurposeReset
)

var (
	// ErrInvalid covers every consumption failure: unknown token, purpose
	// mismatch, or expiry. Deliberately undifferentiated so callers cannot
	// probe which condition failed.
	ErrInvalid = errors.New("one-time token invalid")
	// ErrUnavailable indicates the record backend is unreachable.
	ErrUnavailable = errors.New("one-time token backend unavailable")
)

// Record is the server-side state behind an issued token.
type Record struct {
	ID        string
	AccountID string
	Purpose   Purpose
	ExpiresAt int64
}

// RecordStore persists one-time records. Consume must behave as a single
// atomic unit: no two Consume calls for the same token may both succeed.
type RecordStore interface {
	Save(ctx context.Context, token string, record *Record, ttl time.Duration) error
	Consume(ctx context.Context, token string, expected Purpose) (*Record, error)
}

// Manager issues and redeems one-time tokens against a [RecordStore].
//
// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	store RecordStore
	now   func() time.Time
}

// NewManager creates a Manager over the given store.
func NewManager(store RecordStore) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Issue generates a fresh opaque token for accountID, persists its record
// with expiry now+ttl, and returns the token string.
func (m *Manager) Issue(ctx context.Context, accountID string, purpose Purpose, ttl time.Duration) (string, error) {
	if accountID == "" {
		return "", errors.New("empty account id")
	}
	if ttl <= 0 {
		return "", errors.New("non-positive token ttl")
	}

	tok, err := internal.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	record := &Record{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Purpose:   purpose,
		ExpiresAt: m.now().Add(ttl).Unix(),
	}
	if err := m.store.Save(ctx, tok, record, ttl); err != nil {
		return "", err
	}

	return tok, nil
}

// Consume atomically redeems tok for the expected purpose and returns the
// owning account id. A second call with the same token fails [ErrInvalid].
func (m *Manager) Consume(ctx context.Context, tok string, expected Purpose) (string, error) {
	if tok == "" {
		return "", ErrInvalid
	}

	record, err := m.store.Consume(ctx, tok, expected)
	if err != nil {
		return "", err
	}
	return record.AccountID, nil
}
