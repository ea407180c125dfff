package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistedSession is the durable identifier pair that survives navigation.
// Fields are nil until a successful submission has produced them.
type PersistedSession struct {
	SessionID  *int64
	BusinessID *int64
}

// PGStore keeps exactly one PersistedSession row in PostgreSQL. Writes are
// last-writer-wins and replace the pair wholesale; the record is never
// merged field-by-field with stale data.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Save overwrites the persisted record atomically: both fields land in one
// upsert, or neither does.
func (s *PGStore) Save(ctx context.Context, rec PersistedSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO persisted_session (id, session_id, business_id, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    business_id = EXCLUDED.business_id,
		    updated_at = now()`,
		rec.SessionID, rec.BusinessID)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the last saved record, or an all-nil record if none exists.
func (s *PGStore) Load(ctx context.Context) (PersistedSession, error) {
	var rec PersistedSession
	err := s.pool.QueryRow(ctx,
		`SELECT session_id, business_id FROM persisted_session WHERE id = 1`,
	).Scan(&rec.SessionID, &rec.BusinessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PersistedSession{}, nil
		}
		return PersistedSession{}, fmt.Errorf("load session: %w", err)
	}
	return rec, nil
}
