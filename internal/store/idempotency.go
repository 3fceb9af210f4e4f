package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tsanders-rh/dockctl/pkg/types"
)

// IdempotencyStore caches bulk responses by client-supplied key
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// Save caches a response under key for ttl. A later save for the same key
// replaces the cached response but keeps the original request hash.
func (s *IdempotencyStore) Save(ctx context.Context, key, requestHash string, status int, body []byte, ttl time.Duration) error {
	query := `
		INSERT INTO idempotency_keys (
			id, key, request_hash, response_status_code, response_body, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (key) DO UPDATE
		SET response_status_code = EXCLUDED.response_status_code,
			response_body = EXCLUDED.response_body
	`

	_, err := s.pool.Exec(ctx, query,
		types.GenerateID(),
		key,
		requestHash,
		status,
		body,
		time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}

	return nil
}

// Lookup returns the cached response for key if it exists and hasn't expired.
// It returns ErrNotFound for an unknown or expired key and ErrConflict when the
// key was first used with a different request.
func (s *IdempotencyStore) Lookup(ctx context.Context, key, requestHash string) (*types.IdempotencyKey, error) {
	query := `
		SELECT id, key, request_hash, response_status_code, response_body,
			created_at, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND expires_at > NOW()
	`

	var ikey types.IdempotencyKey
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&ikey.ID,
		&ikey.Key,
		&ikey.RequestHash,
		&ikey.ResponseStatusCode,
		&ikey.ResponseBody,
		&ikey.CreatedAt,
		&ikey.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}

	if ikey.RequestHash != requestHash {
		return nil, ErrConflict
	}

	return &ikey, nil
}

// CleanupExpired removes expired idempotency keys
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired idempotency keys: %w", err)
	}

	return result.RowsAffected(), nil
}
