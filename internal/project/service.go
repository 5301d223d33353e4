package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/history"
	"github.com/hatchwork/backend/internal/models"
)

// Transient storage failures are retried here, bounded, before anything
// surfaces to a handler.
const transientAttempts = 3

// transientRetryDelay is swapped by tests to keep retries instant.
var transientRetryDelay = 75 * time.Millisecond

func retryTransient(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrTransient) || attempt == transientAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * transientRetryDelay):
		}
	}
}

// WelcomeMessage opens every new project's chat log.
const WelcomeMessage = "Hi! Describe the app you want to build and I'll scaffold it for you."

// Repo is the persistence contract the service needs. *Repository
// implements it; tests substitute an in-memory map.
type Repo interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Summary, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, name string, h history.History, expectedRevision int64) (int64, time.Time, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*Project, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]Summary, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, name string, h history.History, expectedRevision int64) (*Project, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Commit(ctx context.Context, ownerID, id uuid.UUID, state models.AppState) (*Project, error)
	Undo(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
	Redo(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
}

type service struct {
	repo Repo
}

func NewService(repo Repo) *service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

// Create synthesizes the genesis snapshot (no files, one welcoming chat
// message, no plan) and persists the one-element history with it.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*Project, error) {
	genesis := models.AppState{
		Files:       map[string]string{},
		ProjectName: name,
		ChatMessages: []models.ChatMessage{
			{Role: models.RoleAssistant, Content: WelcomeMessage, Timestamp: time.Now().UTC()},
		},
	}
	p := &Project{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Name:     name,
		History:  history.New(genesis),
		Revision: 1,
	}
	if err := retryTransient(ctx, func() error { return s.repo.Create(ctx, p) }); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Project, error) {
	var p *Project
	err := retryTransient(ctx, func() error {
		var err error
		p, err = s.repo.Get(ctx, ownerID, id)
		return err
	})
	return p, err
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]Summary, error) {
	var list []Summary
	err := retryTransient(ctx, func() error {
		var err error
		list, err = s.repo.List(ctx, ownerID)
		return err
	})
	return list, err
}

// Update replaces name and history wholesale. The incoming history crossed
// a trust boundary, so its invariants are checked before anything is
// persisted.
func (s *service) Update(ctx context.Context, ownerID, id uuid.UUID, name string, h history.History, expectedRevision int64) (*Project, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	var newRev int64
	var updatedAt time.Time
	err := retryTransient(ctx, func() error {
		var err error
		newRev, updatedAt, err = s.repo.Update(ctx, ownerID, id, name, h, expectedRevision)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Project{ID: id, OwnerID: ownerID, Name: name, History: h, Revision: newRev, UpdatedAt: updatedAt}, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return retryTransient(ctx, func() error { return s.repo.Delete(ctx, ownerID, id) })
}

// Commit appends a new snapshot at the project's cursor, discarding any
// undone future states first.
func (s *service) Commit(ctx context.Context, ownerID, id uuid.UUID, state models.AppState) (*Project, error) {
	return s.mutate(ctx, ownerID, id, func(p *Project) error {
		if state.Files == nil {
			state.Files = map[string]string{}
		}
		p.History.Commit(state)
		return nil
	})
}

// Undo moves the project's cursor one snapshot back. ErrAtGenesis passes
// through untouched so the handler can surface it as a navigation boundary
// rather than a failure.
func (s *service) Undo(ctx context.Context, ownerID, id uuid.UUID) (*Project, error) {
	return s.mutate(ctx, ownerID, id, func(p *Project) error {
		_, err := p.History.Undo()
		return err
	})
}

func (s *service) Redo(ctx context.Context, ownerID, id uuid.UUID) (*Project, error) {
	return s.mutate(ctx, ownerID, id, func(p *Project) error {
		_, err := p.History.Redo()
		return err
	})
}

// mutate is the shared read-mutate-persist cycle for navigation ops. The
// project is re-read every time (no cross-request caching) and written
// back under its revision guard; a concurrent writer surfaces as
// ErrConflict for the client to retry.
func (s *service) mutate(ctx context.Context, ownerID, id uuid.UUID, fn func(p *Project) error) (*Project, error) {
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	// Keep the denormalized display name in sync with the active snapshot.
	if current := p.History.Current(); current.ProjectName != "" {
		p.Name = current.ProjectName
	}
	var newRev int64
	var updatedAt time.Time
	err = retryTransient(ctx, func() error {
		var err error
		newRev, updatedAt, err = s.repo.Update(ctx, ownerID, id, p.Name, p.History, p.Revision)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.Revision = newRev
	p.UpdatedAt = updatedAt
	return p, nil
}
