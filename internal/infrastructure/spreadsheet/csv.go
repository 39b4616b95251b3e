package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/crmportal/backend/internal/domain/contact"
	"golang.org/x/text/encoding/charmap"
)

// utf8BOM is the byte order mark prepended to generated CSV so that
// Excel opens the file as UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiterSampleSize bounds how much of the file the delimiter sniffer
// inspects
const delimiterSampleSize = 1024

func decodeCSV(data []byte) ([]contact.Record, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return rowsToRecords(rows)
}

// decodeText tries encodings in order: UTF-8 with BOM, plain UTF-8,
// then Windows-1251
func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return "", ErrInvalidEncoding
	}
	return string(decoded), nil
}

// sniffDelimiter picks between semicolon and comma by counting both in
// the leading sample. Semicolon wins only when strictly more frequent.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > delimiterSampleSize {
		sample = sample[:delimiterSampleSize]
	}
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		return ';'
	}
	return ','
}

func encodeCSV(records []contact.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writeQuotedRow(&buf, exportHeaders)
	for _, rec := range records {
		writeQuotedRow(&buf, recordCells(rec))
	}

	return buf.Bytes(), nil
}

// writeQuotedRow writes one CSV line with every field quoted, so phone
// numbers and company names survive any spreadsheet application
func writeQuotedRow(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
