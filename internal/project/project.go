// Package project owns durable CRUD over user projects and the navigation
// operations (commit, undo, redo) on their embedded histories.
package project

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/history"
)

// ErrNotFound covers both a missing project and a project owned by someone
// else: ownership failures are folded into not-found so the API never
// confirms that another tenant's id exists.
var ErrNotFound = errors.New("project not found")

// ErrConflict is returned when an update carries a stale revision; the
// caller should re-fetch and retry.
var ErrConflict = errors.New("project was modified concurrently")

// ErrTransient marks a storage failure that is likely to succeed on retry
// (connection loss, timeout, serialization failure). The service retries
// these a small bounded number of times before they surface.
var ErrTransient = errors.New("transient storage failure")

// Project is a named, user-owned unit of work. The history is persisted as
// one jsonb document; Revision increases by exactly one per successful
// update and guards concurrent writers.
type Project struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Name      string          `json:"name"`
	History   history.History `json:"history"`
	Revision  int64           `json:"revision"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is the list-view projection: identity plus fields derived from
// the current snapshot. The undo log itself never ships to list views.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	FileCount    int       `json:"file_count"`
	MessageCount int       `json:"message_count"`
	Revision     int64     `json:"revision"`
	UpdatedAt    time.Time `json:"updated_at"`
}
