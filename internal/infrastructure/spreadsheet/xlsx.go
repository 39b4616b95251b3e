package spreadsheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/crmportal/backend/internal/domain/contact"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheetName = "Контакты"
	maxColumnWidth  = 50
)

func decodeXLSX(data []byte) ([]contact.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidWorkbook
	}

	// stream rows instead of materializing the whole sheet, large
	// uploads should not be held in memory twice
	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer iter.Close()

	var mapping map[Field]int
	var records []contact.Record
	for iter.Next() {
		cells, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
		}
		if mapping == nil {
			mapping = MapHeaders(cells)
			continue
		}
		rec := recordFromRow(mapping, cells)
		if !rec.HasName() {
			continue
		}
		records = append(records, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if mapping == nil {
		return nil, ErrMissingHeader
	}

	return records, nil
}

func encodeXLSX(records []contact.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	widths := make([]int, len(exportHeaders))

	writeRow := func(rowIdx int, cells []string) error {
		addr, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		values := make([]any, len(cells))
		for i, cell := range cells {
			values[i] = cell
			if w := utf8.RuneCountInString(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
		return f.SetSheetRow(exportSheetName, addr, &values)
	}

	if err := writeRow(1, exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, rec := range records {
		if err := writeRow(i+2, recordCells(rec)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// widen columns to fit content, capped so one long value cannot
	// stretch the sheet
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := float64(w + 2)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(exportSheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
