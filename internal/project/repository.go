package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hatchwork/backend/internal/history"
	"github.com/hatchwork/backend/internal/models"
)

// classify tags retryable driver errors with ErrTransient so the service
// can apply its bounded retry. Everything else passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Connection exceptions (class 08), serialization failures, deadlocks.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Repository persists projects in the projects table. Every query filters
// by owner_id, so cross-tenant reads surface as ErrNotFound.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the full record in one statement; either the project with
// its history becomes visible or nothing does.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	histJSON, err := json.Marshal(&p.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return classify(r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, owner_id, name, history, revision)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING updated_at
	`, p.ID, p.OwnerID, p.Name, histJSON, p.Revision).Scan(&p.UpdatedAt))
}

func (r *Repository) Get(ctx context.Context, ownerID, id uuid.UUID) (*Project, error) {
	var p Project
	var histJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, history, revision, updated_at
		FROM projects WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(&p.ID, &p.OwnerID, &p.Name, &histJSON, &p.Revision, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	if err := json.Unmarshal(histJSON, &p.History); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", p.ID, err)
	}
	if err := p.History.Validate(); err != nil {
		return nil, fmt.Errorf("stored history for %s: %w", p.ID, err)
	}
	return &p, nil
}

// List returns summaries ordered most-recently-updated first. The current
// snapshot is extracted inside Postgres so the full undo log never crosses
// the wire for a list view.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, revision, updated_at,
			history->'versions'->((history->>'currentIndex')::int) AS current
		FROM projects WHERE owner_id = $1 ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var list []Summary
	for rows.Next() {
		var s Summary
		var currentJSON []byte
		if err := rows.Scan(&s.ID, &s.Name, &s.Revision, &s.UpdatedAt, &currentJSON); err != nil {
			return nil, classify(err)
		}
		var current models.AppState
		if err := json.Unmarshal(currentJSON, &current); err != nil {
			return nil, fmt.Errorf("decode current snapshot for %s: %w", s.ID, err)
		}
		s.FileCount = len(current.Files)
		s.MessageCount = len(current.ChatMessages)
		list = append(list, s)
	}
	return list, classify(rows.Err())
}

// Update atomically replaces name and history iff the stored revision
// matches expectedRevision. A zero-row update means either the project is
// gone (ErrNotFound) or someone else won the race (ErrConflict).
func (r *Repository) Update(ctx context.Context, ownerID, id uuid.UUID, name string, h history.History, expectedRevision int64) (int64, time.Time, error) {
	histJSON, err := json.Marshal(&h)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("encode history: %w", err)
	}
	var newRevision int64
	var updatedAt time.Time
	err = r.pool.QueryRow(ctx, `
		UPDATE projects
		SET name = $3, history = $4, revision = revision + 1, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND revision = $5
		RETURNING revision, updated_at
	`, id, ownerID, name, histJSON, expectedRevision).Scan(&newRevision, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2)
		`, id, ownerID).Scan(&exists); err != nil {
			return 0, time.Time{}, classify(err)
		}
		if exists {
			return 0, time.Time{}, ErrConflict
		}
		return 0, time.Time{}, ErrNotFound
	}
	if err != nil {
		return 0, time.Time{}, classify(err)
	}
	return newRevision, updatedAt, nil
}

// Delete removes the project if present. Deleting an absent project under
// correct ownership is not an error.
func (r *Repository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM projects WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	return classify(err)
}
