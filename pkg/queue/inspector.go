package queue

import (
	"context"

	"github.com/google/uuid"
)

// DefaultListLimit is used when a list call passes a non-positive limit.
const DefaultListLimit = 50

// Inspector exposes read-only views of the queue.
type Inspector struct {
	repo InspectorRepository
}

// NewInspector creates a new Inspector.
func NewInspector(repo InspectorRepository) (*Inspector, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	return &Inspector{repo: repo}, nil
}

// GetJob returns a job by ID or ErrJobNotFound.
func (i *Inspector) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return i.repo.GetJob(ctx, id)
}

// ListDeadLetters returns up to limit dead-letter jobs, most recently failed first.
func (i *Inspector) ListDeadLetters(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return i.repo.ListJobs(ctx, StateDeadLetter, limit)
}

// Stats returns the number of jobs in every state. States with no jobs are reported as zero.
func (i *Inspector) Stats(ctx context.Context) (Stats, error) {
	counts, err := i.repo.CountJobs(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(Stats, len(States))
	for _, s := range States {
		stats[s] = counts[s]
	}
	return stats, nil
}
