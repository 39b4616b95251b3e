package spreadsheet

import "errors"

// Spreadsheet error codes
const (
	ErrCodeUnsupportedFormat = "ERR_SHEET_UNSUPPORTED_FORMAT"
	ErrCodeEmptyFile         = "ERR_SHEET_EMPTY_FILE"
	ErrCodeInvalidEncoding   = "ERR_SHEET_INVALID_ENCODING"
	ErrCodeMissingHeader     = "ERR_SHEET_MISSING_HEADER"
	ErrCodeInvalidWorkbook   = "ERR_SHEET_INVALID_WORKBOOK"
)

var (
	// ErrUnsupportedFormat is returned for file formats other than csv and xlsx
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrEmptyFile is returned when the uploaded file has no content
	ErrEmptyFile = errors.New("spreadsheet file is empty")

	// ErrInvalidEncoding is returned when text cannot be decoded in any
	// supported encoding
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the sheet has no header row
	ErrMissingHeader = errors.New("spreadsheet missing header row")

	// ErrInvalidWorkbook is returned when an xlsx workbook cannot be opened
	ErrInvalidWorkbook = errors.New("invalid xlsx workbook")
)
