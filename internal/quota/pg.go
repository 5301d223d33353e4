package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists credit records in the user_credits table. All mutation
// is single-statement conditional UPDATEs, so per-account serializability
// comes from Postgres row locking rather than application locks.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) Ensure(ctx context.Context, accountID uuid.UUID, max int, resetAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_credits (account_id, used, max_daily, reset_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID, max, resetAt)
	return err
}

func (s *PGStore) ResetIfDue(ctx context.Context, accountID uuid.UUID, max int, now, nextReset time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_credits SET used = 0, max_daily = $4, reset_at = $3
		WHERE account_id = $1 AND reset_at <= $2
	`, accountID, now, nextReset, max)
	return err
}

func (s *PGStore) ForceReset(ctx context.Context, accountID uuid.UUID, max int, resetAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_credits (account_id, used, max_daily, reset_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET used = 0, max_daily = $2, reset_at = $3
	`, accountID, max, resetAt)
	return err
}

// Increment adds one use iff the cap allows it. RowsAffected == 0 means the
// account is at its ceiling; the check and the increment are one statement,
// so two concurrent turns cannot both take the last slot.
func (s *PGStore) Increment(ctx context.Context, accountID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_credits SET used = used + 1
		WHERE account_id = $1 AND used < max_daily
	`, accountID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) Decrement(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_credits SET used = used - 1
		WHERE account_id = $1 AND used > 0
	`, accountID)
	return err
}

func (s *PGStore) Get(ctx context.Context, accountID uuid.UUID) (*CreditInfo, error) {
	var info CreditInfo
	err := s.pool.QueryRow(ctx, `
		SELECT used, max_daily, reset_at FROM user_credits WHERE account_id = $1
	`, accountID).Scan(&info.Used, &info.Max, &info.ResetAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}
