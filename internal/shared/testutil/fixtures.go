package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// LossHeader is the column layout of a daily loss extract.
var LossHeader = []string{
	"PLAZA", "DIVISION", "MERCADO", "CATEGORIA", "ID_ARTICULO", "DESC_ARTICULO",
	"UPC", "PROVEEDOR", "NOMBRE_TIENDA", "VENTA_PERDIDA_PESOS",
}

// LossCSV encodes rows as an ISO-8859-1 CSV file, the way the upstream extracts are produced.
func LossCSV(header []string, rows ...[]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(charmap.ISO8859_1.NewEncoder().Writer(&buf))
	_ = w.Write(header)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// Workbook builds an xlsx file with one sheet. Leading rows (titles, blanks)
// can be placed before the header via the rows argument itself.
func Workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("failed to create sheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("failed to delete default sheet: %v", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to compute cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}
