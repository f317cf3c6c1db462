package domain

import (
	"time"
)

// LossRecord represents one lost-sale observation for a store and article on a given day.
// It is the normalized form of a row in a daily loss extract (DDMMYYYY.csv).
type LossRecord struct {
	Plaza       string    `json:"plaza"`
	Division    string    `json:"division"`
	Market      string    `json:"market"`
	Category    string    `json:"category"`
	ArticleID   string    `json:"article_id" validate:"required"`
	Description string    `json:"description"`
	UPC         string    `json:"upc,omitempty"`
	Provider    string    `json:"provider"`
	Store       string    `json:"store,omitempty"`
	Family      string    `json:"family,omitempty"`
	Segment     string    `json:"segment,omitempty"`
	Amount      int64     `json:"amount" validate:"min=0"`
	Date        time.Time `json:"date"`
	Week        int       `json:"week"`
	WeekKey     string    `json:"week_key"`
	MonthKey    string    `json:"month_key"`
	SourceFile  string    `json:"source_file"`
}

// NetSalesRecord represents net sales for a plaza and article in one accounting week.
// WeekKey always has the YYYYWW layout so it sorts lexicographically and temporally.
type NetSalesRecord struct {
	Plaza       string  `json:"plaza"`
	Division    string  `json:"division"`
	Market      string  `json:"market"`
	Category    string  `json:"category"`
	ArticleID   string  `json:"article_id"`
	Provider    string  `json:"provider"`
	Family      string  `json:"family"`
	Segment     string  `json:"segment"`
	Description string  `json:"description,omitempty"`
	NetSales    float64 `json:"net_sales"`
	WeekKey     string  `json:"week_key"`
	// DayKey is set only when the source carried an accounting-day column.
	DayKey string `json:"day_key,omitempty"`
}

// CatalogEntry is one row of the master product catalog, keyed by article id.
type CatalogEntry struct {
	ArticleID   string `json:"article_id"`
	Provider    string `json:"provider"`
	Family      string `json:"family"`
	Segment     string `json:"segment"`
	Subcategory string `json:"subcategory"`
	Description string `json:"description"`
}

// ReconciledRecord is a LossRecord enriched with catalog attributes and, when a
// net-sales row shares its composite key, that row's net sales amount.
type ReconciledRecord struct {
	LossRecord
	Subcategory  string   `json:"subcategory,omitempty"`
	NetSales     *float64 `json:"net_sales"`
	PlazaName    string   `json:"plaza_name,omitempty"`
	DivisionName string   `json:"division_name,omitempty"`
}

// Column names a canonical attribute of the loss or net-sales tables.
type Column string

// Canonical columns shared by all file variants.
const (
	ColPlaza       Column = "plaza"
	ColDivision    Column = "division"
	ColMarket      Column = "market"
	ColCategory    Column = "category"
	ColArticle     Column = "article_id"
	ColDescription Column = "description"
	ColUPC         Column = "upc"
	ColProvider    Column = "provider"
	ColStore       Column = "store"
	ColFamily      Column = "family"
	ColSegment     Column = "segment"
	ColSubcategory Column = "subcategory"
	ColLossAmount  Column = "loss_amount"
	ColNetSales    Column = "net_sales"
	ColWeek        Column = "week"
	ColDay         Column = "accounting_day"
)

// NetSalesTable is the parsed net-sales extract together with the set of
// canonical columns its source actually carried.
type NetSalesTable struct {
	Records []NetSalesRecord `json:"records"`
	Columns map[Column]bool  `json:"columns"`
}

// Has reports whether the source carried the given column.
func (t NetSalesTable) Has(c Column) bool {
	return t.Columns[c]
}

// Diagnostic kinds emitted by ingestion.
const (
	DiagFileSkipped    = "file_skipped"
	DiagSchemaMismatch = "schema_mismatch"
	DiagRowsDropped    = "rows_dropped"
)

// Diagnostic is a non-fatal, human-readable note about skipped input.
type Diagnostic struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Dataset is the reconciled view produced by one pipeline run.
type Dataset struct {
	Version     string             `json:"version"`
	Rows        []ReconciledRecord `json:"-"`
	NetSales    NetSalesTable      `json:"-"`
	Files       int                `json:"files"`
	FilesLoaded int                `json:"files_loaded"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
	LoadedAt    time.Time          `json:"loaded_at"`
}
