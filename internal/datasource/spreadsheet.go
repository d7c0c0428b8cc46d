package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column identifiers used in RowError.Column
const (
	ColumnModel  = "model"
	ColumnBrand  = "brand"
	ColumnYear   = "year"
	ColumnHours  = "hours"
	ColumnPrice  = "price"
	ColumnDate   = "date"
	ColumnSource = "source"
)

// headerAliases maps lower-cased header text to a column identifier
var headerAliases = map[string]string{
	"modelo": ColumnModel,
	"model":  ColumnModel,
	"marca":  ColumnBrand,
	"brand":  ColumnBrand,
	"año":    ColumnYear,
	"ano":    ColumnYear,
	"anio":   ColumnYear,
	"year":   ColumnYear,
	"horas":  ColumnHours,
	"hours":  ColumnHours,
	"precio": ColumnPrice,
	"price":  ColumnPrice,
	"fecha":  ColumnDate,
	"date":   ColumnDate,
	"fuente": ColumnSource,
	"source": ColumnSource,
}

const ctxCheckEvery = 500

// SpreadsheetOptions controls how a workbook is read
type SpreadsheetOptions struct {
	// Sheet to read; empty means the first sheet
	Sheet string
	// DefaultSource is used for rows without a source cell
	DefaultSource string
}

// ParseResult is the outcome of reading one workbook
type ParseResult struct {
	Sheet     string      `json:"sheet"`
	TotalRows int         `json:"total_rows"`
	Rows      []RecordRow `json:"rows"`
	RowErrors []RowError  `json:"row_errors"`
}

// SpreadsheetSource reads historical prices from an .xlsx workbook
type SpreadsheetSource struct {
	name string
	data []byte
	opts SpreadsheetOptions
}

// NewSpreadsheetSource buffers r so the workbook can be parsed
func NewSpreadsheetSource(name string, r io.Reader, opts SpreadsheetOptions) (*SpreadsheetSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewDataSourceError(name, ErrCodeInvalidData, "failed to read workbook", err)
	}
	return &SpreadsheetSource{name: name, data: data, opts: opts}, nil
}

// OpenSpreadsheetFile reads the workbook at path
func OpenSpreadsheetFile(path string, opts SpreadsheetOptions) (*SpreadsheetSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return NewSpreadsheetSource(filepath.Base(path), f, opts)
}

// Name returns the workbook name
func (s *SpreadsheetSource) Name() string {
	return s.name
}

// FetchRecords returns the parsed rows, dropping rows with errors
func (s *SpreadsheetSource) FetchRecords(ctx context.Context) ([]RecordRow, error) {
	res, err := s.Parse(ctx)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Parse reads the workbook. Cell-level problems are collected in
// RowErrors; only an unreadable workbook or missing model column fails.
func (s *SpreadsheetSource) Parse(ctx context.Context) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(s.data))
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "not a valid xlsx workbook", err)
	}
	defer f.Close()

	sheet, err := s.pickSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "failed to read sheet "+sheet, err)
	}

	res := &ParseResult{Sheet: sheet}
	headerIdx := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return res, nil
	}

	columns := mapHeader(rows[headerIdx])
	if _, ok := columns[ColumnModel]; !ok {
		return nil, NewDataSourceError(s.name, ErrCodeMissingColumn, "no modelo/model column in header", ErrMissingColumn)
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		if (i-headerIdx)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blankRow(rows[i]) {
			continue
		}
		res.TotalRows++

		rec, rowErr := s.parseRow(i+1, rows[i], columns)
		if rowErr != nil {
			res.RowErrors = append(res.RowErrors, *rowErr)
			continue
		}
		res.Rows = append(res.Rows, rec)
	}
	return res, nil
}

func (s *SpreadsheetSource) pickSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", NewDataSourceError(s.name, ErrCodeInvalidData, "workbook has no sheets", ErrInvalidData)
	}
	if s.opts.Sheet == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == s.opts.Sheet {
			return name, nil
		}
	}
	return "", NewDataSourceError(s.name, ErrCodeInvalidData, "sheet "+s.opts.Sheet+" not found", ErrInvalidData)
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for i, cell := range header {
		col, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}
		if _, seen := columns[col]; !seen {
			columns[col] = i
		}
	}
	return columns
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (s *SpreadsheetSource) parseRow(rowNum int, row []string, columns map[string]int) (RecordRow, *RowError) {
	cell := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	fail := func(col string, err error) *RowError {
		return &RowError{Row: rowNum, Column: col, Message: err.Error()}
	}

	rec := RecordRow{Row: rowNum, Model: cell(ColumnModel), Source: s.opts.DefaultSource}

	if v := cell(ColumnBrand); v != "" {
		rec.Brand = &v
	}
	if v := cell(ColumnYear); v != "" {
		year, err := ParseInt(v)
		if err != nil {
			return rec, fail(ColumnYear, err)
		}
		rec.Year = &year
	}
	if v := cell(ColumnHours); v != "" {
		hours, err := ParseInt(v)
		if err != nil {
			return rec, fail(ColumnHours, err)
		}
		rec.Hours = &hours
	}
	if v := cell(ColumnPrice); v != "" {
		price, err := ParseNumber(v)
		if err != nil {
			return rec, fail(ColumnPrice, err)
		}
		rec.Price = &price
	}
	if v := cell(ColumnDate); v != "" {
		date, err := ParseDate(v)
		if err != nil {
			return rec, fail(ColumnDate, err)
		}
		rec.Date = &date
	}
	if v := cell(ColumnSource); v != "" {
		rec.Source = NormalizeSource(v)
	}
	return rec, nil
}
