// Package workspace composes a user's full project list plus the project a
// client should open first. Pure read-time view, no state of its own.
package workspace

import (
	"context"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/project"
)

type Workspace struct {
	Projects        []project.Summary `json:"projects"`
	ActiveProjectID *uuid.UUID        `json:"active_project_id"`
}

// ProjectLister is the slice of the project service the aggregator needs.
type ProjectLister interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]project.Summary, error)
}

type Service struct {
	projects ProjectLister
}

func NewService(projects ProjectLister) *Service {
	return &Service{projects: projects}
}

// Load returns the workspace for one user. The active project is the most
// recently updated one (the list is already ordered that way), or null for
// a user with no projects.
func (s *Service) Load(ctx context.Context, ownerID uuid.UUID) (*Workspace, error) {
	list, err := s.projects.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Projects: list}
	if ws.Projects == nil {
		ws.Projects = []project.Summary{}
	}
	if len(list) > 0 {
		id := list[0].ID
		ws.ActiveProjectID = &id
	}
	return ws, nil
}
