package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ventaperdida/pkg/contracts/domain"
)

// SheetName is the worksheet name of XLSX exports.
const SheetName = "Venta Perdida"

// WriteXLSX writes an aggregate as a single-sheet workbook. Metrics are
// stored as numbers so they can be summed in Excel; nil metrics are left blank.
func WriteXLSX(w io.Writer, agg domain.Aggregate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := Headers(agg)
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	for i, r := range agg.Rows {
		row := make([]any, 0, len(headers))
		for _, k := range r.Keys {
			row = append(row, k)
		}
		row = append(row, r.Loss, optional(r.NetSales), optional(r.Ratio), optional(r.Change))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// optional returns nil for a nil metric so excelize leaves the cell empty.
func optional(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
