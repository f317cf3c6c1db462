// Package api contains the HTTP contract of the Venta Perdida service.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"ventaperdida/pkg/contracts/domain"
)

// Report API Requests

// FilterQuery carries the sidebar selections as query parameters.
type FilterQuery struct {
	Provider string `json:"provider" query:"provider" validate:"max=120"`
	Plaza    string `json:"plaza" query:"plaza" validate:"max=60"`
	Category string `json:"category" query:"category" validate:"max=120"`
	Division string `json:"division" query:"division" validate:"max=60"`
	Family   string `json:"family" query:"family" validate:"max=120"`
	Segment  string `json:"segment" query:"segment" validate:"max=120"`
	Market   string `json:"market" query:"market" validate:"max=60"`
	Week     string `json:"week" query:"week" validate:"omitempty,weekkey"`
	Article  string `json:"article" query:"article" validate:"max=120"`
}

// Filter converts the query to the domain filter.
func (q FilterQuery) Filter() domain.Filter {
	return domain.Filter{
		Provider: q.Provider,
		Plaza:    q.Plaza,
		Category: q.Category,
		Division: q.Division,
		Family:   q.Family,
		Segment:  q.Segment,
		Market:   q.Market,
		Week:     q.Week,
		Article:  q.Article,
	}
}

// DashboardRequest represents a request for the dashboard of one filter selection
type DashboardRequest struct {
	FilterQuery
	View        string `json:"view" query:"view" validate:"omitempty,oneof=daily weekly monthly"`
	Accumulated bool   `json:"accumulated" query:"accumulated"`
}

// AggregateRequest represents a request for a grouped table
type AggregateRequest struct {
	FilterQuery
	Dims        string `json:"dims" query:"dims" validate:"required,dimensions"`
	Accumulated bool   `json:"accumulated" query:"accumulated"`
	// Compare joins independently grouped net sales onto each row.
	Compare bool `json:"compare" query:"compare"`
	Change  bool `json:"change" query:"change"`
}

// ExportRequest represents a request to download a grouped table
type ExportRequest struct {
	AggregateRequest
	Format string `json:"format" query:"format" validate:"omitempty,oneof=csv xlsx CSV XLSX"`
}

// Report API Responses

// DiagnosticsResponse lists what the last load skipped. UnmatchedRows counts
// loss rows with no net-sales match on the join key.
type DiagnosticsResponse struct {
	Version       string              `json:"version"`
	LoadedAt      time.Time           `json:"loaded_at"`
	Files         int                 `json:"files"`
	FilesLoaded   int                 `json:"files_loaded"`
	Diagnostics   []domain.Diagnostic `json:"diagnostics"`
	Rows          int                 `json:"rows"`
	UnmatchedRows int                 `json:"unmatched_rows"`
}

// RefreshResponse is returned after caches were invalidated and sources reloaded
type RefreshResponse struct {
	Version     string    `json:"version"`
	LoadedAt    time.Time `json:"loaded_at"`
	Files       int       `json:"files"`
	FilesLoaded int       `json:"files_loaded"`
	Diagnostics int       `json:"diagnostics"`
}

// AggregateResponse wraps a grouped table with the source version it was computed from
type AggregateResponse struct {
	Version string   `json:"version"`
	Notes   []string `json:"notes,omitempty"`
	domain.Aggregate
}
