package domain

import (
	"strings"
)

// Filter holds the sidebar selections. Empty fields, and the "all" sentinels
// used by the dashboard ("Todos", "Todas"), select everything.
type Filter struct {
	Provider string `json:"provider,omitempty" validate:"max=120"`
	Plaza    string `json:"plaza,omitempty" validate:"max=60"`
	Category string `json:"category,omitempty" validate:"max=120"`
	Division string `json:"division,omitempty" validate:"max=60"`
	Family   string `json:"family,omitempty" validate:"max=120"`
	Segment  string `json:"segment,omitempty" validate:"max=120"`
	Market   string `json:"market,omitempty" validate:"max=60"`
	Week     string `json:"week,omitempty" validate:"omitempty,numeric,len=6"`
	Article  string `json:"article,omitempty" validate:"max=120"`
}

// Normalize trims every field and clears "all" sentinels.
func (f Filter) Normalize() Filter {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		switch strings.ToLower(s) {
		case "todos", "todas", "all", "*":
			return ""
		}
		return s
	}
	return Filter{
		Provider: clean(f.Provider),
		Plaza:    clean(f.Plaza),
		Category: clean(f.Category),
		Division: clean(f.Division),
		Family:   clean(f.Family),
		Segment:  clean(f.Segment),
		Market:   clean(f.Market),
		Week:     clean(f.Week),
		Article:  clean(f.Article),
	}
}

// Key is a stable string form used for memoization.
func (f Filter) Key() string {
	n := f.Normalize()
	return strings.Join([]string{
		n.Provider, n.Plaza, n.Category, n.Division, n.Family,
		n.Segment, n.Market, n.Week, strings.ToLower(n.Article),
	}, "\x1f")
}

// IsEmpty reports whether no predicate is active.
func (f Filter) IsEmpty() bool {
	return f.Normalize() == Filter{}
}

// Dimension is a grouping attribute.
type Dimension string

// Supported grouping dimensions.
const (
	DimDay         Dimension = "day"
	DimWeek        Dimension = "week"
	DimMonth       Dimension = "month"
	DimProvider    Dimension = "provider"
	DimPlaza       Dimension = "plaza"
	DimCategory    Dimension = "category"
	DimDivision    Dimension = "division"
	DimMarket      Dimension = "market"
	DimArticle     Dimension = "article"
	DimDescription Dimension = "description"
	DimFamily      Dimension = "family"
	DimSegment     Dimension = "segment"
	DimStore       Dimension = "store"
)

// IsTime reports whether d orders a time series.
func (d Dimension) IsTime() bool {
	return d == DimDay || d == DimWeek || d == DimMonth
}

var dimensionLabels = map[Dimension]string{
	DimDay:         "Fecha",
	DimWeek:        "Semana",
	DimMonth:       "Mes",
	DimProvider:    "Proveedor",
	DimPlaza:       "Plaza",
	DimCategory:    "Categoría",
	DimDivision:    "División",
	DimMarket:      "Mercado",
	DimArticle:     "Artículo",
	DimDescription: "Descripción",
	DimFamily:      "Familia",
	DimSegment:     "Segmento",
	DimStore:       "Tienda",
}

// Label is the display name used in chart axes and export headers.
func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// ParseDimensions parses a comma separated list such as "week,plaza".
func ParseDimensions(s string) ([]Dimension, bool) {
	var dims []Dimension
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d := Dimension(part)
		if !KnownDimension(d) {
			return nil, false
		}
		dims = append(dims, d)
	}
	return dims, len(dims) > 0
}

// KnownDimension reports whether d is supported.
func KnownDimension(d Dimension) bool {
	switch d {
	case DimDay, DimWeek, DimMonth, DimProvider, DimPlaza, DimCategory, DimDivision,
		DimMarket, DimArticle, DimDescription, DimFamily, DimSegment, DimStore:
		return true
	}
	return false
}

// View selects the time granularity of the dashboard.
type View string

// Dashboard views.
const (
	ViewDaily   View = "daily"
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
)

// TimeDimension maps a view to its grouping dimension.
func (v View) TimeDimension() Dimension {
	switch v {
	case ViewDaily:
		return DimDay
	case ViewMonthly:
		return DimMonth
	default:
		return DimWeek
	}
}

// GroupRow is one output row of a grouped aggregate. Keys are aligned with
// Aggregate.Dimensions. Nil pointers mean "not applicable".
type GroupRow struct {
	Keys     []string `json:"keys"`
	Loss     int64    `json:"loss"`
	NetSales *float64 `json:"net_sales"`
	Ratio    *float64 `json:"ratio"`
	Change   *float64 `json:"change"`
}

// Aggregate is a small grouped table handed to presentation.
type Aggregate struct {
	Dimensions  []Dimension `json:"dimensions"`
	Rows        []GroupRow  `json:"rows"`
	Accumulated bool        `json:"accumulated"`
}

// Index returns the position of d in the aggregate's dimensions, or -1.
func (a Aggregate) Index(d Dimension) int {
	for i, dim := range a.Dimensions {
		if dim == d {
			return i
		}
	}
	return -1
}
