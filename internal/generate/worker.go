package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/hatchwork/backend/internal/models"
	"github.com/hatchwork/backend/internal/project"
)

type GenerateJobArgs struct {
	ProjectID uuid.UUID `json:"project_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Prompt    string    `json:"prompt"`
}

func (GenerateJobArgs) Kind() string { return "generate_edit" }

// ProjectService is the slice of the project service the worker needs.
type ProjectService interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error)
	Commit(ctx context.Context, ownerID, id uuid.UUID, state models.AppState) (*project.Project, error)
}

// GenerateWorker executes queued generation turns: re-read the project,
// ask the generator for an edit-set, merge, commit. The project is always
// re-read inside the job, so a turn merges onto whatever snapshot is
// current when it runs, not when it was enqueued. A commit lost to a
// concurrent writer surfaces as an error and the job is retried whole.
type GenerateWorker struct {
	river.WorkerDefaults[GenerateJobArgs]
	projects  ProjectService
	generator EditGenerator
	log       *slog.Logger
}

func NewGenerateWorker(projects ProjectService, generator EditGenerator, log *slog.Logger) *GenerateWorker {
	if log == nil {
		log = slog.Default()
	}
	return &GenerateWorker{projects: projects, generator: generator, log: log}
}

func (w *GenerateWorker) Work(ctx context.Context, job *river.Job[GenerateJobArgs]) error {
	args := job.Args

	p, err := w.projects.Get(ctx, args.OwnerID, args.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", args.ProjectID, err)
	}
	current := p.History.Current()

	convo := append(append([]models.ChatMessage{}, current.ChatMessages...), models.ChatMessage{
		Role:      models.RoleUser,
		Content:   args.Prompt,
		Timestamp: time.Now().UTC(),
	})
	res, err := w.generator.ProposeEdit(ctx, convo, current.Files)
	if err != nil {
		return fmt.Errorf("propose edit for %s: %w", args.ProjectID, err)
	}

	next := Merge(current, args.Prompt, res, time.Now().UTC())
	if _, err := w.projects.Commit(ctx, args.OwnerID, args.ProjectID, next); err != nil {
		return fmt.Errorf("commit generated edit for %s: %w", args.ProjectID, err)
	}
	w.log.Info("generation committed", "project_id", args.ProjectID, "files_changed", len(res.FileChanges))
	return nil
}
