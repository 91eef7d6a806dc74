// Package export renders extraction results as spreadsheet reports.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// SheetName is the worksheet holding one row per document
const SheetName = "Notices"

// Row is the outcome of one document. Exactly one of Result and Err is set.
type Row struct {
	File   string
	Result *extraction.Result
	Err    error
}

// Status returns the report status column for the row
func (r Row) Status() string {
	switch {
	case r.Err != nil:
		var ae *textract.AnalysisError
		if errors.As(r.Err, &ae) {
			return ae.Kind.String()
		}
		return "InvalidDocument"
	case r.Result == nil:
		return ""
	default:
		return string(r.Result.Status)
	}
}

// WriteWorkbook writes an XLSX workbook with a File and Status column followed
// by one column per canonical field, in vocabulary order. Failed documents keep
// their error message in the Error column and leave field cells blank.
func WriteWorkbook(w io.Writer, fields []string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	// the default sheet is not used
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headers := append([]string{"File", "Status"}, fields...)
	headers = append(headers, "Error")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		values := make([]any, 0, len(headers))
		values = append(values, row.File, row.Status())

		var found map[string]string
		if row.Result != nil {
			found = row.Result.Map()
		}
		for _, name := range fields {
			values = append(values, found[name])
		}

		errText := ""
		if row.Err != nil {
			errText = row.Err.Error()
		}
		values = append(values, errText)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(SheetName, "A", "A", 36)
	_ = f.SetColWidth(SheetName, "B", "B", 16)
	_ = f.SetColWidth(SheetName, "C", lastCol, 28)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
