package transfer

import (
	"fmt"
	"time"

	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// JobType says which direction a transfer job moves contact data
type JobType string

const (
	JobTypeImport JobType = "import"
	JobTypeExport JobType = "export"
)

// IsValid checks if the job type is valid
func (t JobType) IsValid() bool {
	return t == JobTypeImport || t == JobTypeExport
}

// Label returns the Russian display label used by the job history view
func (t JobType) Label() string {
	switch t {
	case JobTypeImport:
		return "Импорт"
	case JobTypeExport:
		return "Экспорт"
	}
	return string(t)
}

// FileFormat identifies the spreadsheet format of the uploaded or produced file
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
)

// IsValid checks if the file format is supported
func (f FileFormat) IsValid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// ContentType returns the MIME type served for download of this format
func (f FileFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// JobStatus represents the lifecycle state of a transfer job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Label returns the Russian display label used by the job history view
func (s JobStatus) Label() string {
	switch s {
	case StatusPending:
		return "Ожидает"
	case StatusProcessing:
		return "Обрабатывается"
	case StatusCompleted:
		return "Завершено"
	case StatusFailed:
		return "Ошибка"
	}
	return string(s)
}

// Job tracks one import or export run: its lifecycle, progress counters and
// the export artifact reference. Counters only grow within a run; a job
// never leaves a terminal state.
type Job struct {
	shared.OwnerAggregateRoot
	JobType          JobType    `json:"job_type"`
	FileFormat       FileFormat `json:"file_format"`
	FileName         string     `json:"file_name,omitempty"`
	Status           JobStatus  `json:"status"`
	TotalRecords     int        `json:"total_records"`
	ProcessedRecords int        `json:"processed_records"`
	FailedRecords    int        `json:"failed_records"`
	FilterParams     string     `json:"filter_params,omitempty"`
	ArtifactKey      string     `json:"artifact_key,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewImportJob creates a pending import job for an uploaded file
func NewImportJob(ownerID uuid.UUID, format FileFormat, fileName string) (*Job, error) {
	if !format.IsValid() {
		return nil, shared.NewDomainError("UNSUPPORTED_FORMAT", fmt.Sprintf("Unsupported file format: %s", format))
	}
	return &Job{
		OwnerAggregateRoot: shared.NewOwnerAggregateRoot(ownerID),
		JobType:            JobTypeImport,
		FileFormat:         format,
		FileName:           fileName,
		Status:             StatusPending,
	}, nil
}

// NewExportJob creates a pending export job for the given filter
func NewExportJob(ownerID uuid.UUID, format FileFormat, filterParams string) (*Job, error) {
	if !format.IsValid() {
		return nil, shared.NewDomainError("UNSUPPORTED_FORMAT", fmt.Sprintf("Unsupported file format: %s", format))
	}
	return &Job{
		OwnerAggregateRoot: shared.NewOwnerAggregateRoot(ownerID),
		JobType:            JobTypeExport,
		FileFormat:         format,
		FilterParams:       filterParams,
		Status:             StatusPending,
	}, nil
}

// Start moves the job from pending to processing
func (j *Job) Start() error {
	if j.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", j.Status))
	}
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	return nil
}

// SetTotal records the number of records this run will attempt
func (j *Job) SetTotal(total int) error {
	if total < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Total records cannot be negative")
	}
	j.TotalRecords = total
	j.UpdatedAt = time.Now()
	return nil
}

// UpdateProgress advances the cumulative counters. Counters are monotonic
// within a run and never exceed the total.
func (j *Job) UpdateProgress(processed, failed int) error {
	if j.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update progress in state: %s", j.Status))
	}
	if processed < j.ProcessedRecords || failed < j.FailedRecords {
		return shared.NewDomainError("INVALID_INPUT", "Progress counters cannot decrease")
	}
	if processed > j.TotalRecords {
		return shared.NewDomainError("INVALID_INPUT", "Processed records cannot exceed total")
	}
	if failed > processed {
		return shared.NewDomainError("INVALID_INPUT", "Failed records cannot exceed processed")
	}
	j.ProcessedRecords = processed
	j.FailedRecords = failed
	j.UpdatedAt = time.Now()
	return nil
}

// Complete marks the job as successfully finished and stamps the
// completion time
func (j *Job) Complete() error {
	if j.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", j.Status))
	}
	j.Status = StatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// Fail marks the job as failed with a descriptive message. Only a
// processing job can fail; a pending job has not started doing work yet.
func (j *Job) Fail(message string) error {
	if j.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from state: %s", j.Status))
	}
	j.Status = StatusFailed
	j.ErrorMessage = TruncateError(message)
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// SetArtifact attaches the export output reference. Only completed export
// jobs carry an artifact.
func (j *Job) SetArtifact(key string) error {
	if j.JobType != JobTypeExport {
		return shared.NewDomainError("INVALID_STATE", "Only export jobs produce an output artifact")
	}
	j.ArtifactKey = key
	j.UpdatedAt = time.Now()
	return nil
}

// ArtifactFileName returns the download filename for the export artifact
func (j *Job) ArtifactFileName() string {
	return fmt.Sprintf("export_%s.%s", j.ID, j.FileFormat)
}

// IsCompleted returns true if the job finished successfully
func (j *Job) IsCompleted() bool {
	return j.Status == StatusCompleted
}

// maxErrorLength caps stored error messages so a remote stack trace cannot
// blow up the job and record rows.
const maxErrorLength = 500

// TruncateError shortens an error message to the persisted limit
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxErrorLength {
		return msg
	}
	return string(runes[:maxErrorLength])
}
