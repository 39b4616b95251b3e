package persistence

import (
	"context"

	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/crmportal/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recordInsertBatchSize bounds how many record rows go into one INSERT
const recordInsertBatchSize = 100

// GormRecordRepository implements transfer.RecordRepository using GORM
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// SaveAll inserts the per-record outcomes of one processed chunk
func (r *GormRecordRepository) SaveAll(ctx context.Context, records []*transfer.Record) error {
	if len(records) == 0 {
		return nil
	}
	recordModels := make([]models.TransferRecordModel, len(records))
	for i, rec := range records {
		recordModels[i].FromDomain(rec)
	}
	return r.db.WithContext(ctx).CreateInBatches(recordModels, recordInsertBatchSize).Error
}

// FindByJob returns all records of a job ordered by their input position
func (r *GormRecordRepository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]*transfer.Record, error) {
	var recordModels []models.TransferRecordModel
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("record_index ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]*transfer.Record, len(recordModels))
	for i, model := range recordModels {
		records[i] = model.ToDomain()
	}
	return records, nil
}

// Compile-time interface compliance check
var _ transfer.RecordRepository = (*GormRecordRepository)(nil)
