package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/crmportal/backend/internal/infrastructure/config"
	"github.com/crmportal/backend/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	staleJobMessage  = "Обработка прервана перезапуском сервиса"
	emptyFileMessage = "Файл не содержит контактов"

	// exportProgressEvery bounds how many exported rows accumulate
	// before progress is persisted
	exportProgressEvery = 50
)

// Orchestrator runs transfer jobs end to end: it decodes uploads, drives
// the remote CRM, persists per-record outcomes and keeps the job's
// progress counters current.
type Orchestrator struct {
	jobs    transfer.JobRepository
	records transfer.RecordRepository
	crm     ContactService
	store   ArtifactStore
	cfg     config.BitrixConfig
	logger  *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	jobs transfer.JobRepository,
	records transfer.RecordRepository,
	crm ContactService,
	store ArtifactStore,
	cfg config.BitrixConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		jobs:    jobs,
		records: records,
		crm:     crm,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// RunImport parses an uploaded spreadsheet and pushes its contacts to the
// remote CRM in chunks. The returned job carries the outcome; a file that
// cannot be parsed yields a failed job, not an error.
func (o *Orchestrator) RunImport(ctx context.Context, ownerID uuid.UUID, format transfer.FileFormat, fileName string, data []byte) (*transfer.Job, error) {
	job, err := transfer.NewImportJob(ownerID, format, fileName)
	if err != nil {
		return nil, err
	}
	if err := job.Start(); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	parsed, err := spreadsheet.Decode(string(format), data)
	if err != nil {
		o.failJob(ctx, job, fmt.Sprintf("Не удалось прочитать файл: %v", err))
		return job, nil
	}

	contacts := make([]contact.Record, 0, len(parsed))
	for _, raw := range parsed {
		rec, ok := contact.Validate(raw)
		if !ok {
			continue
		}
		rec.Phone = contact.NormalizePhone(rec.Phone)
		contacts = append(contacts, rec)
	}

	if len(contacts) == 0 {
		o.failJob(ctx, job, emptyFileMessage)
		return job, nil
	}

	if err := job.SetTotal(len(contacts)); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("import run panicked",
				zap.String("job_id", job.ID.String()),
				zap.Any("panic", r),
			)
			o.failJob(ctx, job, fmt.Sprintf("Внутренняя ошибка: %v", r))
		}
	}()

	o.pushContacts(ctx, job, contacts)
	return job, nil
}

// pushContacts sends the validated contacts chunk by chunk and records
// each contact's outcome. A pause between chunks keeps the run inside
// the portal's rate limits.
func (o *Orchestrator) pushContacts(ctx context.Context, job *transfer.Job, contacts []contact.Record) {
	chunkSize := o.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	processed := 0
	failed := 0

	for offset := 0; offset < len(contacts); offset += chunkSize {
		if offset > 0 && o.cfg.CallDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.CallDelay):
			}
		}

		end := offset + chunkSize
		if end > len(contacts) {
			end = len(contacts)
		}
		chunk := contacts[offset:end]

		results, err := o.crm.CreateContacts(ctx, chunk)
		if err != nil {
			// the whole chunk failed to reach the CRM
			results = make([]CreateResult, len(chunk))
			for i := range chunk {
				results[i] = CreateResult{Index: i, Err: err}
			}
		}

		rows := make([]*transfer.Record, 0, len(chunk))
		for _, res := range results {
			status := transfer.RecordStatusSuccess
			errMsg := ""
			if res.Err != nil {
				status = transfer.RecordStatusFailed
				errMsg = res.Err.Error()
				failed++
			}
			processed++

			row, rowErr := transfer.NewRecord(job.ID, offset+res.Index, chunk[res.Index], status, errMsg, res.ContactID)
			if rowErr != nil {
				o.logger.Error("failed to build record row", zap.Error(rowErr))
				continue
			}
			rows = append(rows, row)
		}

		// losing record rows would leave a completed job whose
		// counters no one can reconcile, so persistence faults end
		// the run
		if err := o.records.SaveAll(ctx, rows); err != nil {
			o.failJob(ctx, job, fmt.Sprintf("Не удалось сохранить результаты: %v", err))
			return
		}

		if err := job.UpdateProgress(processed, failed); err != nil {
			o.logger.Error("failed to update progress", zap.Error(err))
		}
		if err := o.jobs.Save(ctx, job); err != nil {
			o.failJob(ctx, job, fmt.Sprintf("Не удалось сохранить результаты: %v", err))
			return
		}
	}

	if err := job.Complete(); err != nil {
		o.logger.Error("failed to complete job", zap.Error(err))
		return
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		o.logger.Error("failed to save completed job", zap.Error(err))
	}
}

// RunExport lists the remote contacts matching the filter, renders them
// in the requested format and stores the file for download. A listing
// that degraded mid-pagination still produces a file from the fetched
// pages.
func (o *Orchestrator) RunExport(ctx context.Context, ownerID uuid.UUID, format transfer.FileFormat, filter ContactFilter) (*transfer.Job, error) {
	job, err := transfer.NewExportJob(ownerID, format, filter.Token())
	if err != nil {
		return nil, err
	}
	if err := job.Start(); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	page, err := o.crm.ListContacts(ctx, filter)
	if err != nil {
		o.failJob(ctx, job, fmt.Sprintf("Не удалось получить контакты: %v", err))
		return job, nil
	}
	if page.Degraded {
		o.logger.Warn("export proceeds with a partial contact listing",
			zap.String("job_id", job.ID.String()),
			zap.Int("fetched", len(page.Contacts)),
		)
	}

	if err := job.SetTotal(len(page.Contacts)); err != nil {
		return nil, err
	}

	if len(page.Contacts) == 0 {
		if err := job.Complete(); err != nil {
			return nil, err
		}
		if err := o.jobs.Save(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to save job: %w", err)
		}
		return job, nil
	}

	contacts := make([]contact.Record, len(page.Contacts))
	for i, rc := range page.Contacts {
		contacts[i] = contact.Record{
			FirstName:   rc.FirstName,
			LastName:    rc.LastName,
			Phone:       rc.Phone,
			Email:       rc.Email,
			CompanyName: rc.CompanyName,
		}
	}

	// persist exported rows and progress in slices while the export
	// buffer accumulates, so a long export stays observable
	batch := make([]*transfer.Record, 0, exportProgressEvery)
	done := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := o.records.SaveAll(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		if err := job.UpdateProgress(done, 0); err != nil {
			return err
		}
		return o.jobs.Save(ctx, job)
	}
	for i, rec := range contacts {
		row, rowErr := transfer.NewRecord(job.ID, i, rec, transfer.RecordStatusExported, "", page.Contacts[i].ID)
		if rowErr != nil {
			o.logger.Error("failed to build record row", zap.Error(rowErr))
			continue
		}
		batch = append(batch, row)
		done = i + 1
		if len(batch) >= exportProgressEvery {
			if err := flush(); err != nil {
				o.failJob(ctx, job, fmt.Sprintf("Не удалось сохранить результаты: %v", err))
				return job, nil
			}
		}
	}
	if err := flush(); err != nil {
		o.failJob(ctx, job, fmt.Sprintf("Не удалось сохранить результаты: %v", err))
		return job, nil
	}

	encoded, err := spreadsheet.Encode(string(format), contacts)
	if err != nil {
		o.failJob(ctx, job, fmt.Sprintf("Не удалось сформировать файл: %v", err))
		return job, nil
	}

	artifactKey := job.ArtifactFileName()
	if err := o.store.Put(ctx, artifactKey, format.ContentType(), encoded); err != nil {
		o.failJob(ctx, job, fmt.Sprintf("Не удалось сохранить файл: %v", err))
		return job, nil
	}
	if err := job.SetArtifact(artifactKey); err != nil {
		return nil, err
	}

	if err := job.Complete(); err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

// GetStatus returns a job and its per-record outcomes
func (o *Orchestrator) GetStatus(ctx context.Context, ownerID, jobID uuid.UUID) (*transfer.Job, []*transfer.Record, error) {
	job, err := o.jobs.FindByID(ctx, ownerID, jobID)
	if err != nil {
		return nil, nil, err
	}
	records, err := o.records.FindByJob(ctx, job.ID)
	if err != nil {
		return nil, nil, err
	}
	return job, records, nil
}

// History returns the owner's most recent jobs, newest first
func (o *Orchestrator) History(ctx context.Context, ownerID uuid.UUID, limit int) ([]*transfer.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	return o.jobs.FindRecent(ctx, ownerID, limit)
}

// DownloadArtifact fetches the stored export file of a completed job
func (o *Orchestrator) DownloadArtifact(ctx context.Context, ownerID, jobID uuid.UUID) (string, string, []byte, error) {
	job, err := o.jobs.FindByID(ctx, ownerID, jobID)
	if err != nil {
		return "", "", nil, err
	}
	if job.JobType != transfer.JobTypeExport {
		return "", "", nil, shared.NewDomainError("INVALID_STATE", "Only export jobs produce a downloadable file")
	}
	if !job.IsCompleted() || job.ArtifactKey == "" {
		return "", "", nil, shared.NewDomainError("INVALID_STATE", "Export file is not ready yet")
	}

	data, err := o.store.Get(ctx, job.ArtifactKey)
	if err != nil {
		return "", "", nil, err
	}
	return job.ArtifactFileName(), job.FileFormat.ContentType(), data, nil
}

// SweepStale fails jobs stuck in processing longer than the configured
// threshold, typically after a service restart
func (o *Orchestrator) SweepStale(ctx context.Context) (int64, error) {
	threshold := o.cfg.StaleJobAfter
	if threshold <= 0 {
		threshold = time.Hour
	}
	cutoff := time.Now().Add(-threshold)

	swept, err := o.jobs.MarkStaleProcessing(ctx, cutoff, staleJobMessage)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		o.logger.Warn("failed stale processing jobs", zap.Int64("count", swept))
	}
	return swept, nil
}

// failJob moves a job to failed and persists it, logging rather than
// propagating persistence errors
func (o *Orchestrator) failJob(ctx context.Context, job *transfer.Job, message string) {
	if err := job.Fail(message); err != nil {
		o.logger.Error("failed to mark job failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		o.logger.Error("failed to save failed job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
