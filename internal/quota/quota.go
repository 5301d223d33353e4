// Package quota bounds how many AI-generation turns an account may consume
// per calendar day. Resets are lazy and read-triggered: whenever a record is
// touched past its reset time it is zeroed in place, no background clock.
package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultDailyLimit is the free-tier daily generation cap.
const DefaultDailyLimit = 10

// ErrQuotaExceeded is returned by Consume when the daily cap is reached.
var ErrQuotaExceeded = errors.New("daily generation quota exceeded")

// CreditInfo is the per-account usage record.
type CreditInfo struct {
	Used    int       `json:"used"`
	Max     int       `json:"max"`
	ResetAt time.Time `json:"reset_at"`
}

// Remaining is derived, never stored.
func (c CreditInfo) Remaining() int {
	if c.Used >= c.Max {
		return 0
	}
	return c.Max - c.Used
}

// Store is the persistence contract for credit records. Increment must be
// atomic with respect to concurrent callers on the same account: two turns
// racing for the last slot must not both succeed.
type Store interface {
	// Ensure creates the record with used=0 if absent. No-op otherwise.
	Ensure(ctx context.Context, accountID uuid.UUID, max int, resetAt time.Time) error
	// ResetIfDue zeroes the record iff its reset time has passed. The
	// configured cap is applied at the same time, so a changed limit takes
	// effect for existing accounts at their next rollover.
	ResetIfDue(ctx context.Context, accountID uuid.UUID, max int, now, nextReset time.Time) error
	// ForceReset zeroes the record unconditionally.
	ForceReset(ctx context.Context, accountID uuid.UUID, max int, resetAt time.Time) error
	// Increment adds one use iff used < max. Returns false when the cap is
	// already reached, leaving the record untouched.
	Increment(ctx context.Context, accountID uuid.UUID) (bool, error)
	// Decrement gives one use back, never going below zero.
	Decrement(ctx context.Context, accountID uuid.UUID) error
	Get(ctx context.Context, accountID uuid.UUID) (*CreditInfo, error)
}

// nowFn is swapped by tests to simulate the passage of days.
var nowFn = time.Now

// nextMidnight returns the start of the calendar day after t (UTC).
func nextMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

type Service struct {
	store Store
	max   int
	log   *slog.Logger
}

func NewService(store Store, max int, log *slog.Logger) *Service {
	if max <= 0 {
		max = DefaultDailyLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, max: max, log: log}
}

// GetUsage returns current usage, transparently resetting a record whose
// reset time has passed. Storage failures degrade to a synthesized
// zero-usage record: a read problem must never lock a user out of the UI.
func (s *Service) GetUsage(ctx context.Context, accountID uuid.UUID) CreditInfo {
	now := nowFn()
	if err := s.touch(ctx, accountID, now); err != nil {
		s.log.Error("quota touch failed", "account_id", accountID, "error", err)
		return CreditInfo{Used: 0, Max: s.max, ResetAt: nextMidnight(now)}
	}
	info, err := s.store.Get(ctx, accountID)
	if err != nil || info == nil {
		s.log.Error("quota read failed", "account_id", accountID, "error", err)
		return CreditInfo{Used: 0, Max: s.max, ResetAt: nextMidnight(now)}
	}
	return *info
}

// Consume records one generation turn. Returns ErrQuotaExceeded when the
// cap is reached. Unlike reads, consumption is fail-closed: if the
// increment cannot be persisted the turn is denied, so an unreachable
// store can never grant unmetered generations.
func (s *Service) Consume(ctx context.Context, accountID uuid.UUID) error {
	now := nowFn()
	if err := s.touch(ctx, accountID, now); err != nil {
		return err
	}
	ok, err := s.store.Increment(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// Refund gives back a consumed turn, used when a granted turn could not be
// started. Never drops usage below zero.
func (s *Service) Refund(ctx context.Context, accountID uuid.UUID) error {
	return s.store.Decrement(ctx, accountID)
}

// Remaining returns how many turns are left today.
func (s *Service) Remaining(ctx context.Context, accountID uuid.UUID) int {
	return s.GetUsage(ctx, accountID).Remaining()
}

// ResetNow is the administrative override: zeroes the record regardless of
// its scheduled reset time.
func (s *Service) ResetNow(ctx context.Context, accountID uuid.UUID) error {
	return s.store.ForceReset(ctx, accountID, s.max, nextMidnight(nowFn()))
}

// touch guarantees a record exists and is current relative to now.
func (s *Service) touch(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	next := nextMidnight(now)
	if err := s.store.Ensure(ctx, accountID, s.max, next); err != nil {
		return err
	}
	return s.store.ResetIfDue(ctx, accountID, s.max, now, next)
}
