package dto

import (
	"time"

	"github.com/crmportal/backend/internal/domain/transfer"
)

// ExportRequest is the body of an export submission. The optional date
// bounds narrow the export to contacts created within the range.
type ExportRequest struct {
	Format   string `json:"format" binding:"required,oneof=csv xlsx"`
	DateFrom string `json:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// HistoryRequest carries the history listing parameters
type HistoryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// JobResponse is the API shape of one transfer job
type JobResponse struct {
	ID               string     `json:"id"`
	JobType          string     `json:"job_type"`
	JobTypeLabel     string     `json:"job_type_label"`
	FileFormat       string     `json:"file_format"`
	FileName         string     `json:"file_name,omitempty"`
	Status           string     `json:"status"`
	StatusLabel      string     `json:"status_label"`
	TotalRecords     int        `json:"total_records"`
	ProcessedRecords int        `json:"processed_records"`
	FailedRecords    int        `json:"failed_records"`
	FilterParams     string     `json:"filter_params,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	HasArtifact      bool       `json:"has_artifact"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// RecordResponse is the API shape of one per-record outcome
type RecordResponse struct {
	Index           int    `json:"index"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	Status          string `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`
	RemoteContactID string `json:"remote_contact_id,omitempty"`
}

// JobDetailResponse combines a job with its record outcomes
type JobDetailResponse struct {
	Job     JobResponse      `json:"job"`
	Records []RecordResponse `json:"records"`
}

// ToJobResponse converts a domain job to its API shape
func ToJobResponse(job *transfer.Job) JobResponse {
	return JobResponse{
		ID:               job.ID.String(),
		JobType:          string(job.JobType),
		JobTypeLabel:     job.JobType.Label(),
		FileFormat:       string(job.FileFormat),
		FileName:         job.FileName,
		Status:           string(job.Status),
		StatusLabel:      job.Status.Label(),
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		FailedRecords:    job.FailedRecords,
		FilterParams:     job.FilterParams,
		ErrorMessage:     job.ErrorMessage,
		HasArtifact:      job.ArtifactKey != "",
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
	}
}

// ToRecordResponse converts a domain record to its API shape
func ToRecordResponse(rec *transfer.Record) RecordResponse {
	return RecordResponse{
		Index:           rec.RecordIndex,
		FirstName:       rec.ContactData.FirstName,
		LastName:        rec.ContactData.LastName,
		Phone:           rec.ContactData.Phone,
		Email:           rec.ContactData.Email,
		CompanyName:     rec.ContactData.CompanyName,
		Status:          string(rec.Status),
		ErrorMessage:    rec.ErrorMessage,
		RemoteContactID: rec.RemoteContactID,
	}
}

// ToJobResponses converts a job list to its API shape
func ToJobResponses(jobs []*transfer.Job) []JobResponse {
	out := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = ToJobResponse(job)
	}
	return out
}
