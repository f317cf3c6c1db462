// Package exporter writes grouped aggregates as CSV or XLSX files.
//
// CSVWriter encodes rows with a UTF-8 BOM for Excel compatibility; WriteXLSX
// builds a single-sheet workbook with numeric metric cells. Exporter picks
// the encoder for a Format:
//
//	format, err := exporter.ParseFormat("xlsx")
//	data, err := exporter.NewExporter(logger).Render(format, agg)
package exporter
