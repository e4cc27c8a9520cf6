package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authgate/token"
)

var (
	// ErrInvalid covers every validation failure: codec rejection, wrong
	// token type, unknown identifier, revoked or expired record. Deliberately
	// undifferentiated so callers cannot probe which condition failed.
	ErrInvalid = errors.New("refresh token invalid")
	// ErrUnavailable indicates the record backend is unreachable.
	ErrUnavailable = errors.New("refresh token backend unavailable")
	// ErrNotFound is returned by record stores for an unknown identifier.
	ErrNotFound = errors.New("refresh record not found")
)

// Record is the server-side state behind one issued refresh token.
type Record struct {
	ID        string
	AccountID string
	IssuedAt  int64
	ExpiresAt int64
	Revoked   bool
}

// RecordStore persists refresh records keyed by token identifier. Revoke
// must be monotonic: once revoked a record never reads as live again, even
// under concurrent Revoke calls.
type RecordStore interface {
	Save(ctx context.Context, record *Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Record, error)
	Revoke(ctx context.Context, id string) error
}

// Subject carries the identity claims embedded in an issued refresh token.
type Subject struct {
	AccountID string
	Email     string
	Roles     []string
}

// Registry issues, validates, and revokes refresh tokens backed by a
// [RecordStore].
//
// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	codec *token.Codec
	store RecordStore
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry creates a Registry issuing tokens with the given lifetime.
func NewRegistry(codec *token.Codec, store RecordStore, ttl time.Duration) (*Registry, error) {
	if codec == nil {
		return nil, errors.New("nil token codec")
	}
	if store == nil {
		return nil, errors.New("nil record store")
	}
	if ttl <= 0 {
		return nil, errors.New("non-positive refresh ttl")
	}
	return &Registry{codec: codec, store: store, ttl: ttl, now: time.Now}, nil
}

// Issue persists a fresh non-revoked record and returns the signed refresh
// token embedding its identifier.
func (r *Registry) Issue(ctx context.Context, sub Subject) (string, error) {
	if sub.AccountID == "" {
		return "", errors.New("empty account id")
	}

	now := r.now()
	record := &Record{
		ID:        uuid.NewString(),
		AccountID: sub.AccountID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(r.ttl).Unix(),
	}
	if err := r.store.Save(ctx, record, r.ttl); err != nil {
		return "", err
	}

	return r.codec.Issue(sub.AccountID, token.TypeRefresh, now.Add(r.ttl), token.Extra{
		Email:   sub.Email,
		Roles:   sub.Roles,
		TokenID: record.ID,
	})
}

// Validate parses signed and returns the live record it points at. Any
// failure short of backend unavailability maps to [ErrInvalid].
func (r *Registry) Validate(ctx context.Context, signed string) (*Record, error) {
	record, _, err := r.lookup(ctx, signed)
	return record, err
}

// ValidateClaims is Validate plus the decoded claim set, for callers that
// need the embedded identity without a second parse.
func (r *Registry) ValidateClaims(ctx context.Context, signed string) (*Record, *token.Claims, error) {
	return r.lookup(ctx, signed)
}

func (r *Registry) lookup(ctx context.Context, signed string) (*Record, *token.Claims, error) {
	claims, err := r.codec.Parse(signed)
	if err != nil {
		return nil, nil, ErrInvalid
	}
	if claims.TokenType != token.TypeRefresh || claims.TokenID == "" {
		return nil, nil, ErrInvalid
	}

	record, err := r.store.Get(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalid
		}
		return nil, nil, err
	}
	if record.Revoked {
		return nil, nil, ErrInvalid
	}
	if r.now().Unix() > record.ExpiresAt {
		return nil, nil, ErrInvalid
	}

	return record, claims, nil
}

// Revoke validates signed and flips its record's revoked flag. Revoking an
// already-revoked token succeeds silently; a token that cannot be parsed or
// located fails [ErrInvalid].
func (r *Registry) Revoke(ctx context.Context, signed string) error {
	claims, err := r.codec.Parse(signed)
	if err != nil {
		return ErrInvalid
	}
	if claims.TokenType != token.TypeRefresh || claims.TokenID == "" {
		return ErrInvalid
	}

	if err := r.store.Revoke(ctx, claims.TokenID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalid
		}
		return err
	}
	return nil
}
