package transfer

import (
	"fmt"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordStatus is the per-record outcome within a job
type RecordStatus string

const (
	RecordStatusSuccess  RecordStatus = "success"
	RecordStatusFailed   RecordStatus = "failed"
	RecordStatusExported RecordStatus = "exported"
)

// IsValid checks if the record status is valid
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusSuccess, RecordStatusFailed, RecordStatusExported:
		return true
	}
	return false
}

// Record is one contact's outcome within a single transfer job. Records are
// created once and never mutated; they are ordered by their stable
// zero-based index within the job.
type Record struct {
	shared.BaseEntity
	JobID           uuid.UUID      `json:"job_id"`
	RecordIndex     int            `json:"record_index"`
	ContactData     contact.Record `json:"contact_data"`
	Status          RecordStatus   `json:"status"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	RemoteContactID string         `json:"remote_contact_id,omitempty"`
}

// NewRecord creates an immutable per-record outcome row for a job
func NewRecord(jobID uuid.UUID, index int, data contact.Record, status RecordStatus, errMsg, remoteID string) (*Record, error) {
	if jobID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Record must belong to a job")
	}
	if index < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Record index cannot be negative")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid record status: %s", status))
	}
	return &Record{
		BaseEntity:      shared.NewBaseEntity(),
		JobID:           jobID,
		RecordIndex:     index,
		ContactData:     data,
		Status:          status,
		ErrorMessage:    TruncateError(errMsg),
		RemoteContactID: remoteID,
	}, nil
}
