package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRepository persists transfer jobs
type JobRepository interface {
	Save(ctx context.Context, job *Job) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Job, error)
	FindRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Job, error)
	// MarkStaleProcessing fails jobs left in processing before the cutoff,
	// e.g. after a host interruption. Returns the number of jobs touched.
	MarkStaleProcessing(ctx context.Context, before time.Time, message string) (int64, error)
}

// RecordRepository persists per-record outcomes
type RecordRepository interface {
	SaveAll(ctx context.Context, records []*Record) error
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*Record, error)
}
