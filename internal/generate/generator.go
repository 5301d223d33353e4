// Package generate turns a user's chat prompt into a new project snapshot:
// it calls the LLM edit generator, validates the structured reply, merges
// it onto the current AppState, and commits the result through the project
// history. Generation runs as a background job so the API request that
// triggered it only pays for the enqueue.
package generate

import (
	"time"

	"github.com/hatchwork/backend/internal/models"
)

// FileChange is one entry of the LLM's edit-set: an upsert of a file's
// full content, or a deletion.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Delete  bool   `json:"delete,omitempty"`
}

// EditResult is the structured reply of the edit generator.
type EditResult struct {
	ChatTurn    string              `json:"chat_turn"`
	FileChanges []FileChange        `json:"file_changes"`
	PreviewHTML string              `json:"preview_html"`
	Plan        *models.ProjectPlan `json:"plan,omitempty"`
}

// Merge derives the next snapshot from the current one: the user's prompt
// and the assistant's reply are appended to the chat log, file changes are
// applied, and the preview and plan are refreshed when present. The input
// snapshot is never mutated.
func Merge(current models.AppState, prompt string, res *EditResult, at time.Time) models.AppState {
	next := current.Clone()
	next.ChatMessages = append(next.ChatMessages,
		models.ChatMessage{Role: models.RoleUser, Content: prompt, Timestamp: at},
		models.ChatMessage{Role: models.RoleAssistant, Content: res.ChatTurn, Timestamp: at},
	)
	for _, fc := range res.FileChanges {
		if fc.Delete {
			delete(next.Files, fc.Path)
			continue
		}
		next.Files[fc.Path] = fc.Content
	}
	if res.PreviewHTML != "" {
		next.PreviewHTML = res.PreviewHTML
	}
	if res.Plan != nil {
		next.Plan = res.Plan
	}
	return next
}
