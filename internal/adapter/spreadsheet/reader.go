package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// ErrUnsupportedFormat is returned for file extensions the pipeline does
// not understand. The upload endpoint filters these out already; this
// guards the job path.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Reader streams one uploaded file row by row, without loading it whole.
// The first file row is treated as the header; Next returns io.EOF at the
// end of the stream.
type Reader interface {
	Next() (domain.ImportRow, error)
	Close() error
}

// Open picks a reader by file extension (.csv or .xlsx).
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".xlsx":
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// mapRow pairs header names with cell values. Missing trailing cells stay
// absent; extra cells without a header are dropped.
func mapRow(headers, cells []string) domain.ImportRow {
	row := make(domain.ImportRow, len(headers))
	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		row[h] = cells[i]
	}
	return row
}

func normalizeHeaders(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// --- CSV ---

type csvReader struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
}

func openCSV(path string) (*csvReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}

	reader := csv.NewReader(file)
	// Rows may be ragged; the header mapping tolerates that.
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("csv has no header row")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	return &csvReader{
		file:    file,
		reader:  reader,
		headers: normalizeHeaders(headers),
	}, nil
}

func (r *csvReader) Next() (domain.ImportRow, error) {
	cells, err := r.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading csv row: %w", err)
	}
	return mapRow(r.headers, cells), nil
}

func (r *csvReader) Close() error {
	return r.file.Close()
}

// --- XLSX ---

type xlsxReader struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
}

func openXLSX(path string) (*xlsxReader, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		file.Close()
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("streaming xlsx rows: %w", err)
	}

	if !rows.Next() {
		rows.Close()
		file.Close()
		return nil, fmt.Errorf("xlsx has no header row")
	}
	headers, err := rows.Columns()
	if err != nil {
		rows.Close()
		file.Close()
		return nil, fmt.Errorf("reading xlsx header: %w", err)
	}

	return &xlsxReader{
		file:    file,
		rows:    rows,
		headers: normalizeHeaders(headers),
	}, nil
}

func (r *xlsxReader) Next() (domain.ImportRow, error) {
	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return nil, fmt.Errorf("streaming xlsx row: %w", err)
		}
		return nil, io.EOF
	}

	cells, err := r.rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading xlsx row: %w", err)
	}
	return mapRow(r.headers, cells), nil
}

func (r *xlsxReader) Close() error {
	err := r.rows.Close()
	if closeErr := r.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
