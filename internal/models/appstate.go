package models

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectPlan is the structured plan produced by a planning turn before
// code generation. Nil on projects that skipped planning.
type ProjectPlan struct {
	Summary  string   `json:"summary"`
	Features []string `json:"features,omitempty"`
	Pages    []string `json:"pages,omitempty"`
}

// AppState is one immutable point-in-time view of a project: the generated
// file set, the rendered single-file preview, and the conversation so far.
// Stored snapshots are never mutated; every edit produces a new AppState
// appended to the project's history.
type AppState struct {
	Files        map[string]string `json:"files"`
	PreviewHTML  string            `json:"previewHtml"`
	ChatMessages []ChatMessage     `json:"chatMessages"`
	ProjectName  string            `json:"projectName"`
	Plan         *ProjectPlan      `json:"projectPlan"`
}

// Clone returns a deep copy so callers can derive a new snapshot without
// aliasing the stored one.
func (s AppState) Clone() AppState {
	out := s
	out.Files = make(map[string]string, len(s.Files))
	for k, v := range s.Files {
		out.Files[k] = v
	}
	out.ChatMessages = make([]ChatMessage, len(s.ChatMessages))
	copy(out.ChatMessages, s.ChatMessages)
	if s.Plan != nil {
		plan := *s.Plan
		plan.Features = append([]string(nil), s.Plan.Features...)
		plan.Pages = append([]string(nil), s.Plan.Pages...)
		out.Plan = &plan
	}
	return out
}
