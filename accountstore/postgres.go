package accountstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrEthical07/authgate"
)

const uniqueViolation = "23505"

// Postgres is an AccountStore on a pgx connection pool.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id              TEXT PRIMARY KEY,
//	    email           TEXT NOT NULL UNIQUE,
//	    full_name       TEXT NOT NULL DEFAULT '',
//	    password_hash   TEXT NOT NULL DEFAULT '',
//	    roles           TEXT[] NOT NULL DEFAULT '{}',
//	    verified        BOOLEAN NOT NULL DEFAULT FALSE,
//	    enabled         BOOLEAN NOT NULL DEFAULT FALSE,
//	    providers       JSONB NOT NULL DEFAULT '{}',
//	    failed_attempts INTEGER NOT NULL DEFAULT 0,
//	    locked_until    BIGINT NOT NULL DEFAULT 0,
//	    created_at      BIGINT NOT NULL,
//	    version         BIGINT NOT NULL DEFAULT 1
//	);
//
// Emails are stored lowercased; lookups normalize the same way.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, account *authgate.Account) error {
	providers, err := marshalProviders(account.Providers)
	if err != nil {
		return err
	}

	version := account.Version
	if version == 0 {
		version = 1
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO accounts
		    (id, email, full_name, password_hash, roles, verified, enabled,
		     providers, failed_attempts, locked_until, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		account.ID, emailKey(account.Email), account.FullName,
		account.PasswordHash, account.Roles, account.Verified,
		account.Enabled, providers, account.FailedAttempts,
		account.LockedUntil, account.CreatedAt, version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrEmailAlreadyUsed
		}
		return fmt.Errorf("%w: %v", authgate.ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) GetByEmail(ctx context.Context, email string) (*authgate.Account, error) {
	return s.get(ctx, `WHERE email = $1`, emailKey(email))
}

func (s *Postgres) GetByID(ctx context.Context, id string) (*authgate.Account, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Postgres) get(ctx context.Context, where string, arg any) (*authgate.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, password_hash, roles, verified, enabled,
		       providers, failed_attempts, locked_until, created_at, version
		FROM accounts `+where, arg)

	var account authgate.Account
	var providers []byte
	err := row.Scan(
		&account.ID, &account.Email, &account.FullName,
		&account.PasswordHash, &account.Roles, &account.Verified,
		&account.Enabled, &providers, &account.FailedAttempts,
		&account.LockedUntil, &account.CreatedAt, &account.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authgate.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", authgate.ErrUnavailable, err)
	}

	if len(providers) > 0 {
		if err := json.Unmarshal(providers, &account.Providers); err != nil {
			return nil, fmt.Errorf("%w: %v", authgate.ErrUnavailable, err)
		}
	}
	return &account, nil
}

// Update commits only when the row's version matches account.Version; the
// version column advances inside the same statement.
func (s *Postgres) Update(ctx context.Context, account *authgate.Account) error {
	providers, err := marshalProviders(account.Providers)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET
		    full_name = $3, password_hash = $4, roles = $5, verified = $6,
		    enabled = $7, providers = $8, failed_attempts = $9,
		    locked_until = $10, version = version + 1
		WHERE id = $1 AND version = $2`,
		account.ID, account.Version, account.FullName,
		account.PasswordHash, account.Roles, account.Verified,
		account.Enabled, providers, account.FailedAttempts,
		account.LockedUntil,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", authgate.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		// Missing row and stale version both land here; disambiguate.
		if _, err := s.GetByID(ctx, account.ID); errors.Is(err, authgate.ErrAccountNotFound) {
			return authgate.ErrAccountNotFound
		}
		return authgate.ErrConflict
	}
	return nil
}

func (s *Postgres) LinkProvider(ctx context.Context, accountID, provider, providerID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET providers = providers || jsonb_build_object($2::text, $3::text)
		WHERE id = $1`,
		accountID, provider, providerID,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", authgate.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrAccountNotFound
	}
	return nil
}

func marshalProviders(providers map[string]string) ([]byte, error) {
	if providers == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(providers)
}
