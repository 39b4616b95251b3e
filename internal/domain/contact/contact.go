package contact

import (
	"regexp"
	"strings"
)

// Record is the canonical five-field contact shape exchanged between the
// spreadsheet codec, the validator and the remote gateway.
type Record struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

// IsEmpty returns true if every field of the record is empty
func (r Record) IsEmpty() bool {
	return r.FirstName == "" && r.LastName == "" && r.Phone == "" &&
		r.Email == "" && r.CompanyName == ""
}

// HasName returns true if the record carries at least one name component
func (r Record) HasName() bool {
	return strings.TrimSpace(r.FirstName) != "" || strings.TrimSpace(r.LastName) != ""
}

// FullName returns the display name built from first and last name
func (r Record) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s has the local@domain.tld shape accepted
// by the CRM
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate trims all fields and applies the acceptance rules. A record with
// neither first nor last name is rejected. An email that does not look like
// local@domain.tld is dropped without rejecting the record. Validate is
// idempotent: validating an already validated record returns it unchanged.
func Validate(raw Record) (Record, bool) {
	out := Record{
		FirstName:   strings.TrimSpace(raw.FirstName),
		LastName:    strings.TrimSpace(raw.LastName),
		Phone:       strings.TrimSpace(raw.Phone),
		Email:       strings.TrimSpace(raw.Email),
		CompanyName: strings.TrimSpace(raw.CompanyName),
	}

	if out.FirstName == "" && out.LastName == "" {
		return Record{}, false
	}

	if out.Email != "" && !IsValidEmail(out.Email) {
		out.Email = ""
	}

	return out, true
}
