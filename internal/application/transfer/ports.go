package transfer

import (
	"context"
	"errors"

	"github.com/crmportal/backend/internal/domain/contact"
)

// ErrArtifactNotFound is returned when an export artifact does not exist
// in the configured store
var ErrArtifactNotFound = errors.New("export artifact not found")

// ArtifactStore persists generated export files
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// CompanyCache memoizes resolved company IDs by title
type CompanyCache interface {
	Get(ctx context.Context, title string) (string, bool, error)
	Set(ctx context.Context, title, companyID string) error
}

// ContactFilter narrows a contact listing to a creation-date range.
// Bounds are inclusive dates in 2006-01-02 form; an empty bound leaves
// that side open.
type ContactFilter struct {
	DateFrom string
	DateTo   string
}

// IsZero reports whether the filter carries no bounds
func (f ContactFilter) IsZero() bool {
	return f.DateFrom == "" && f.DateTo == ""
}

// Token renders the filter as the compact range persisted on export jobs
func (f ContactFilter) Token() string {
	if f.IsZero() {
		return ""
	}
	return f.DateFrom + ".." + f.DateTo
}

// CreateResult is the aligned outcome of creating one contact remotely.
// Index refers to the contact's position in the submitted slice.
type CreateResult struct {
	Index     int
	ContactID string
	Err       error
}

// RemoteContact is one contact as stored in the remote CRM
type RemoteContact struct {
	ID          string
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	CompanyID   string
	CompanyName string
}

// ContactPage is the outcome of listing remote contacts. Degraded marks
// a listing that broke off mid-pagination and returns only the pages
// fetched so far.
type ContactPage struct {
	Contacts []RemoteContact
	Degraded bool
}

// Company is a remote CRM company
type Company struct {
	ID    string
	Title string
}

// ContactService is the remote CRM surface the orchestrator depends on
type ContactService interface {
	CreateContacts(ctx context.Context, contacts []contact.Record) ([]CreateResult, error)
	ListContacts(ctx context.Context, filter ContactFilter) (*ContactPage, error)
	GetContactCompanies(ctx context.Context, contactID string) ([]Company, error)
}
