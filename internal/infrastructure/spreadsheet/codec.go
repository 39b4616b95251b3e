package spreadsheet

import (
	"github.com/crmportal/backend/internal/domain/contact"
)

// Supported spreadsheet formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Decode parses an uploaded spreadsheet into raw contact records. The
// first row is treated as the header and mapped fuzzily onto contact
// fields; rows where both name cells are empty are dropped. Returned
// records are trimmed but not otherwise validated.
func Decode(format string, data []byte) ([]contact.Record, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	switch format {
	case FormatCSV:
		return decodeCSV(data)
	case FormatXLSX:
		return decodeXLSX(data)
	}
	return nil, ErrUnsupportedFormat
}

// Encode renders contact records as a downloadable spreadsheet with the
// fixed Russian column titles
func Encode(format string, records []contact.Record) ([]byte, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(records)
	case FormatXLSX:
		return encodeXLSX(records)
	}
	return nil, ErrUnsupportedFormat
}

// rowsToRecords converts header plus data rows into contact records
func rowsToRecords(rows [][]string) ([]contact.Record, error) {
	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}

	mapping := MapHeaders(rows[0])

	records := make([]contact.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := recordFromRow(mapping, cells)
		// rows without any name carry nothing importable
		if !rec.HasName() {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// recordFromRow builds one contact record from a data row under the
// given header mapping
func recordFromRow(mapping map[Field]int, cells []string) contact.Record {
	fields := extractRow(mapping, cells)
	return contact.Record{
		FirstName:   fields[FieldFirstName],
		LastName:    fields[FieldLastName],
		Phone:       fields[FieldPhone],
		Email:       fields[FieldEmail],
		CompanyName: fields[FieldCompanyName],
	}
}

// recordCells renders one record in export column order
func recordCells(rec contact.Record) []string {
	return []string{rec.FirstName, rec.LastName, rec.Phone, rec.Email, rec.CompanyName}
}
