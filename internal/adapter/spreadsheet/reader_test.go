package spreadsheet_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/storebridge/internal/adapter/spreadsheet"
	"github.com/neomorfeo/storebridge/internal/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("setting row: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving xlsx: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing xlsx: %v", err)
	}
	return path
}

func readAll(t *testing.T, reader spreadsheet.Reader) []domain.ImportRow {
	t.Helper()
	var out []domain.ImportRow
	for {
		row, err := reader.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, row)
	}
}

func TestOpen_CSV(t *testing.T) {
	path := writeCSV(t, "sku,name,price\nA-1,Widget,19.90\nA-2,Gadget,5\n")

	reader, err := spreadsheet.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	rows := readAll(t, reader)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["sku"] != "A-1" || rows[0]["name"] != "Widget" || rows[0]["price"] != "19.90" {
		t.Errorf("first row = %v", rows[0])
	}
	if rows[1]["sku"] != "A-2" {
		t.Errorf("second row = %v", rows[1])
	}
}

func TestOpen_CSV_RaggedRows(t *testing.T) {
	path := writeCSV(t, "sku,name,price\nA-1,Widget\nA-2,Gadget,5,extra\n")

	reader, err := spreadsheet.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	rows := readAll(t, reader)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if _, ok := rows[0]["price"]; ok {
		t.Error("short row should not have a price cell")
	}
	if rows[1]["price"] != "5" {
		t.Errorf("price = %q, want %q", rows[1]["price"], "5")
	}
}

func TestOpen_CSV_TrimsHeaderWhitespace(t *testing.T) {
	path := writeCSV(t, "sku , name\nA-1,Widget\n")

	reader, err := spreadsheet.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	rows := readAll(t, reader)
	if rows[0]["sku"] != "A-1" || rows[0]["name"] != "Widget" {
		t.Errorf("row = %v", rows[0])
	}
}

func TestOpen_CSV_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")

	if _, err := spreadsheet.Open(path); err == nil {
		t.Fatal("expected error for csv without header")
	}
}

func TestOpen_XLSX(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"sku", "name", "stock"},
		{"A-1", "Widget", 3},
		{"A-2", "Gadget", 7},
	})

	reader, err := spreadsheet.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	rows := readAll(t, reader)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["sku"] != "A-1" || rows[0]["stock"] != "3" {
		t.Errorf("first row = %v", rows[0])
	}
	if rows[1]["name"] != "Gadget" {
		t.Errorf("second row = %v", rows[1])
	}
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("sku\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := spreadsheet.Open(path)
	if !errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := spreadsheet.Open("/nonexistent/upload.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
