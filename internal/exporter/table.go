package exporter

import (
	"ventaperdida/pkg/contracts/domain"
)

// Metric column headers, after the dimension columns.
const (
	HeaderLoss     = "Venta Perdida"
	HeaderNetSales = "Venta Neta"
	HeaderRatio    = "% Venta Perdida"
	HeaderChange   = "% Cambio"
)

// Headers returns the column headers for an aggregate.
func Headers(agg domain.Aggregate) []string {
	headers := make([]string, 0, len(agg.Dimensions)+4)
	for _, d := range agg.Dimensions {
		headers = append(headers, d.Label())
	}
	return append(headers, HeaderLoss, HeaderNetSales, HeaderRatio, HeaderChange)
}

// Records renders aggregate rows as strings. Not-applicable metrics are empty.
func Records(agg domain.Aggregate) [][]string {
	records := make([][]string, 0, len(agg.Rows))
	for _, r := range agg.Rows {
		rec := make([]string, 0, len(r.Keys)+4)
		rec = append(rec, r.Keys...)
		rec = append(rec,
			formatInt(r.Loss),
			formatOptional(r.NetSales),
			formatOptional(r.Ratio),
			formatOptional(r.Change),
		)
		records = append(records, rec)
	}
	return records
}
