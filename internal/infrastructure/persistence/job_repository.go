package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/crmportal/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJobRepository implements transfer.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Save saves a transfer job (create or update)
func (r *GormJobRepository) Save(ctx context.Context, job *transfer.Job) error {
	model := models.TransferJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a job by ID within an owner's scope
func (r *GormJobRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*transfer.Job, error) {
	var model models.TransferJobModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns an owner's jobs, newest first
func (r *GormJobRepository) FindRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]*transfer.Job, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobModels []models.TransferJobModel
	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]*transfer.Job, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = model.ToDomain()
	}
	return jobs, nil
}

// MarkStaleProcessing fails jobs stuck in processing since before the
// cutoff. Runs at startup so interrupted runs do not stay in-flight
// forever.
func (r *GormJobRepository) MarkStaleProcessing(ctx context.Context, before time.Time, message string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.TransferJobModel{}).
		Where("status = ? AND updated_at < ?", transfer.StatusProcessing, before).
		Updates(map[string]any{
			"status":        transfer.StatusFailed,
			"error_message": transfer.TruncateError(message),
			"completed_at":  now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Compile-time interface compliance check
var _ transfer.JobRepository = (*GormJobRepository)(nil)
