// Package history implements the per-project undo/redo log: an ordered
// sequence of immutable AppState snapshots with a cursor. Committing while
// the cursor is behind the tail discards the undone future first (flat
// editor-style truncation, not tree branching).
package history

import (
	"errors"

	"github.com/hatchwork/backend/internal/models"
)

// ErrAtGenesis is returned by Undo when the cursor is already at the
// initial snapshot. ErrAtHead is the redo counterpart. Both are terminal
// no-op signals, not failures: the history is unchanged when they occur.
var (
	ErrAtGenesis = errors.New("already at genesis state")
	ErrAtHead    = errors.New("already at newest state")
)

// ErrInvalidHistory is returned by Validate for a deserialized history
// that breaks the structural invariants (empty versions, cursor out of
// range).
var ErrInvalidHistory = errors.New("invalid history")

// History holds every snapshot of one project. Versions is never empty;
// index 0 is the genesis state created with the project. CurrentIndex
// always addresses a valid element.
type History struct {
	Versions     []models.AppState `json:"versions"`
	CurrentIndex int               `json:"currentIndex"`
}

// New returns a one-element history positioned at the given genesis state.
func New(initial models.AppState) History {
	return History{Versions: []models.AppState{initial}, CurrentIndex: 0}
}

// Commit appends state at the cursor. Any versions after the cursor are
// dropped first; they are unrecoverable afterwards.
func (h *History) Commit(state models.AppState) {
	h.Versions = append(h.Versions[:h.CurrentIndex+1], state)
	h.CurrentIndex = len(h.Versions) - 1
}

// Undo moves the cursor one step back and returns the snapshot there.
// Fails with ErrAtGenesis at index 0; the cursor does not move on failure.
func (h *History) Undo() (models.AppState, error) {
	if h.CurrentIndex == 0 {
		return models.AppState{}, ErrAtGenesis
	}
	h.CurrentIndex--
	return h.Versions[h.CurrentIndex], nil
}

// Redo moves the cursor one step forward and returns the snapshot there.
// Fails with ErrAtHead at the last index; the cursor does not move on
// failure.
func (h *History) Redo() (models.AppState, error) {
	if h.CurrentIndex == len(h.Versions)-1 {
		return models.AppState{}, ErrAtHead
	}
	h.CurrentIndex++
	return h.Versions[h.CurrentIndex], nil
}

// Current returns the snapshot at the cursor. Total on any History that
// satisfies Validate.
func (h *History) Current() models.AppState {
	return h.Versions[h.CurrentIndex]
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.CurrentIndex > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return h.CurrentIndex < len(h.Versions)-1 }

// Validate checks the structural invariants. Call on every history that
// crossed a trust boundary (request body, stored document) before using it.
func (h *History) Validate() error {
	if len(h.Versions) == 0 {
		return ErrInvalidHistory
	}
	if h.CurrentIndex < 0 || h.CurrentIndex >= len(h.Versions) {
		return ErrInvalidHistory
	}
	return nil
}
