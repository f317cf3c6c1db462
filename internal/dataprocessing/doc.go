// Package dataprocessing turns raw sales-loss extracts, net-sales workbooks and
// the product catalog into reconciled rows and the grouped tables behind the
// dashboard.
//
// # Architecture
//
// The package is organized into four stages:
//
// 1. Ingestion: ParseLossFile reads ISO-8859-1 CSV extracts named DDMMYYYY.csv;
// ParseNetSalesSheet and ParseCatalogSheet read the first sheet of a workbook.
// 2. Normalization: headers are matched to canonical columns through the alias
// table, codes lose float artifacts, providers are recoded and amounts are
// rounded half away from zero.
// 3. Reconciliation: Reconcile enriches rows from the catalog and left-joins
// net sales on plaza, division, category, article, provider and week.
// 4. Aggregation: Apply, Group, Compare, Cumulative and WithPeriodChange.
//
// Pipeline ties the stages to a files.Store.
//
// # Usage
//
//	p := dataprocessing.NewPipeline(store, tables, cfg.Sources, logger, metrics)
//	ds, err := p.Run(ctx)
//	if err != nil {
//	    return err // SOURCE_UNAVAILABLE or context error
//	}
//
//	rows := dataprocessing.Apply(ds.Rows, domain.Filter{Provider: "PMI"})
//	net := dataprocessing.FilterNetSales(ds.NetSales, domain.Filter{Provider: "PMI"})
//	weekly := dataprocessing.Compare(rows, net, []domain.Dimension{domain.DimWeek})
//
// # Weeks
//
// Both sides use ISO weeks. A loss file dated 2024-07-01 belongs to week key
// 202427 and month 2024-07; the month of a week is the month of its Monday.
//
// # Errors
//
// Files that cannot be parsed return FILE_PARSE errors and workbooks missing
// required columns return SCHEMA_MISMATCH. Pipeline records both as
// diagnostics on the dataset and keeps going.
package dataprocessing
