package exporter

import (
	"bytes"
	"fmt"
	"log/slog"

	"ventaperdida/pkg/contracts/domain"
)

// Exporter renders aggregates in the supported file formats.
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewExporter creates an exporter
func NewExporter(logger *slog.Logger) *Exporter {
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{csv: NewCSVWriter(logger), logger: logger}
}

// Render returns the aggregate encoded as format.
func (e *Exporter) Render(format Format, agg domain.Aggregate) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatCSV:
		err := e.csv.WriteCSV(&buf, WriteOptions{
			Headers:   Headers(agg),
			Records:   Records(agg),
			BOMPrefix: true,
		})
		if err != nil {
			return nil, err
		}
	case FormatXLSX:
		if err := WriteXLSX(&buf, agg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	e.logger.Info("Aggregate exported",
		slog.String("format", string(format)),
		slog.Int("rows", len(agg.Rows)),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
