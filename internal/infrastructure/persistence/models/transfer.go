package models

import (
	"time"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/crmportal/backend/internal/domain/shared"
	"github.com/crmportal/backend/internal/domain/transfer"
	"github.com/google/uuid"
)

// TransferJobModel is the persistence model for the transfer Job aggregate.
type TransferJobModel struct {
	OwnerAggregateModel
	JobType          transfer.JobType    `gorm:"type:varchar(10);not null;index"`
	FileFormat       transfer.FileFormat `gorm:"type:varchar(10);not null"`
	FileName         string              `gorm:"type:varchar(255)"`
	Status           transfer.JobStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalRecords     int                 `gorm:"not null;default:0"`
	ProcessedRecords int                 `gorm:"not null;default:0"`
	FailedRecords    int                 `gorm:"not null;default:0"`
	FilterParams     string              `gorm:"type:text"`
	ArtifactKey      string              `gorm:"type:varchar(512)"`
	ErrorMessage     string              `gorm:"type:varchar(500)"`
	CompletedAt      *time.Time          `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (TransferJobModel) TableName() string {
	return "transfer_jobs"
}

// ToDomain converts the persistence model to a domain Job
func (m *TransferJobModel) ToDomain() *transfer.Job {
	job := &transfer.Job{
		JobType:          m.JobType,
		FileFormat:       m.FileFormat,
		FileName:         m.FileName,
		Status:           m.Status,
		TotalRecords:     m.TotalRecords,
		ProcessedRecords: m.ProcessedRecords,
		FailedRecords:    m.FailedRecords,
		FilterParams:     m.FilterParams,
		ArtifactKey:      m.ArtifactKey,
		ErrorMessage:     m.ErrorMessage,
		CompletedAt:      m.CompletedAt,
	}
	m.PopulateOwnerAggregateRoot(&job.OwnerAggregateRoot)
	return job
}

// FromDomain populates the persistence model from a domain Job
func (m *TransferJobModel) FromDomain(j *transfer.Job) {
	m.FromDomainOwnerAggregateRoot(j.OwnerAggregateRoot)
	m.JobType = j.JobType
	m.FileFormat = j.FileFormat
	m.FileName = j.FileName
	m.Status = j.Status
	m.TotalRecords = j.TotalRecords
	m.ProcessedRecords = j.ProcessedRecords
	m.FailedRecords = j.FailedRecords
	m.FilterParams = j.FilterParams
	m.ArtifactKey = j.ArtifactKey
	m.ErrorMessage = j.ErrorMessage
	m.CompletedAt = j.CompletedAt
}

// TransferJobModelFromDomain creates a new persistence model from a domain Job
func TransferJobModelFromDomain(j *transfer.Job) *TransferJobModel {
	m := &TransferJobModel{}
	m.FromDomain(j)
	return m
}

// TransferRecordModel is the persistence model for per-record outcomes.
type TransferRecordModel struct {
	BaseModel
	JobID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	RecordIndex     int                   `gorm:"not null"`
	FirstName       string                `gorm:"type:varchar(255)"`
	LastName        string                `gorm:"type:varchar(255)"`
	Phone           string                `gorm:"type:varchar(32)"`
	Email           string                `gorm:"type:varchar(255)"`
	CompanyName     string                `gorm:"type:varchar(255)"`
	Status          transfer.RecordStatus `gorm:"type:varchar(20);not null"`
	ErrorMessage    string                `gorm:"type:varchar(500)"`
	RemoteContactID string                `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (TransferRecordModel) TableName() string {
	return "transfer_records"
}

// ToDomain converts the persistence model to a domain Record
func (m *TransferRecordModel) ToDomain() *transfer.Record {
	return &transfer.Record{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		JobID:       m.JobID,
		RecordIndex: m.RecordIndex,
		ContactData: contact.Record{
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			Phone:       m.Phone,
			Email:       m.Email,
			CompanyName: m.CompanyName,
		},
		Status:          m.Status,
		ErrorMessage:    m.ErrorMessage,
		RemoteContactID: m.RemoteContactID,
	}
}

// FromDomain populates the persistence model from a domain Record
func (m *TransferRecordModel) FromDomain(r *transfer.Record) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.JobID = r.JobID
	m.RecordIndex = r.RecordIndex
	m.FirstName = r.ContactData.FirstName
	m.LastName = r.ContactData.LastName
	m.Phone = r.ContactData.Phone
	m.Email = r.ContactData.Email
	m.CompanyName = r.ContactData.CompanyName
	m.Status = r.Status
	m.ErrorMessage = r.ErrorMessage
	m.RemoteContactID = r.RemoteContactID
}

// TransferRecordModelFromDomain creates a new persistence model from a domain Record
func TransferRecordModelFromDomain(r *transfer.Record) *TransferRecordModel {
	m := &TransferRecordModel{}
	m.FromDomain(r)
	return m
}
