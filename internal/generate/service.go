package generate

import (
	"context"

	"github.com/google/uuid"
)

// InsertGenerateJobFunc enqueues a generation job. Provided by main as a
// closure over river.Client.Insert (breaks the init cycle between the
// service and the River client).
type InsertGenerateJobFunc func(ctx context.Context, args GenerateJobArgs) error

// CreditConsumer meters generation turns. Consume is atomic on the store
// side; Refund gives a turn back when a granted one could not start.
type CreditConsumer interface {
	Consume(ctx context.Context, accountID uuid.UUID) error
	Refund(ctx context.Context, accountID uuid.UUID) error
}

type Service struct {
	projects  ProjectService
	credits   CreditConsumer
	insertJob InsertGenerateJobFunc
}

func NewService(projects ProjectService, credits CreditConsumer, insertJob InsertGenerateJobFunc) *Service {
	return &Service{projects: projects, credits: credits, insertJob: insertJob}
}

// Enqueue queues one generation turn. Ownership is verified before a credit
// is consumed, so a request for a missing or foreign project costs nothing;
// if the queue insert itself fails the consumed turn is refunded.
func (s *Service) Enqueue(ctx context.Context, ownerID, projectID uuid.UUID, prompt string) error {
	if _, err := s.projects.Get(ctx, ownerID, projectID); err != nil {
		return err
	}
	if err := s.credits.Consume(ctx, ownerID); err != nil {
		return err
	}
	if err := s.insertJob(ctx, GenerateJobArgs{ProjectID: projectID, OwnerID: ownerID, Prompt: prompt}); err != nil {
		_ = s.credits.Refund(ctx, ownerID)
		return err
	}
	return nil
}
