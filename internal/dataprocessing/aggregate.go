package dataprocessing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ventaperdida/pkg/contracts/domain"
)

// Apply returns the rows matching every active predicate of f.
func Apply(rows []domain.ReconciledRecord, f domain.Filter) []domain.ReconciledRecord {
	f = f.Normalize()
	if f.IsEmpty() {
		return rows
	}
	article := strings.ToLower(f.Article)

	out := make([]domain.ReconciledRecord, 0, len(rows))
	for _, r := range rows {
		if !match(f.Provider, r.Provider) ||
			!match(f.Plaza, r.Plaza) ||
			!match(f.Category, r.Category) ||
			!match(f.Division, r.Division) ||
			!match(f.Family, r.Family) ||
			!match(f.Segment, r.Segment) ||
			!match(f.Market, r.Market) ||
			!match(f.Week, r.WeekKey) ||
			!matchArticle(article, r.Description, r.ArticleID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterNetSales applies f to the net-sales side. Predicates on columns the
// net-sales source does not carry are ignored.
func FilterNetSales(net domain.NetSalesTable, f domain.Filter) domain.NetSalesTable {
	f = f.Normalize()
	if f.IsEmpty() {
		return net
	}
	article := strings.ToLower(f.Article)
	on := func(c domain.Column, want, got string) bool {
		return !net.Has(c) || match(want, got)
	}

	out := make([]domain.NetSalesRecord, 0, len(net.Records))
	for _, r := range net.Records {
		if !on(domain.ColProvider, f.Provider, r.Provider) ||
			!on(domain.ColPlaza, f.Plaza, r.Plaza) ||
			!on(domain.ColCategory, f.Category, r.Category) ||
			!on(domain.ColDivision, f.Division, r.Division) ||
			!on(domain.ColFamily, f.Family, r.Family) ||
			!on(domain.ColSegment, f.Segment, r.Segment) ||
			!on(domain.ColMarket, f.Market, r.Market) ||
			!on(domain.ColWeek, f.Week, r.WeekKey) ||
			!matchArticle(article, r.Description, r.ArticleID) {
			continue
		}
		out = append(out, r)
	}
	return domain.NetSalesTable{Records: out, Columns: net.Columns}
}

// UnappliedNetFilters lists the active predicates of f that FilterNetSales
// skips because the net-sales side lacks the column. A non-empty result
// means net sales are broader than the filtered loss rows.
func UnappliedNetFilters(net domain.NetSalesTable, f domain.Filter) []domain.Column {
	f = f.Normalize()
	preds := []struct {
		col  domain.Column
		want string
	}{
		{domain.ColProvider, f.Provider},
		{domain.ColPlaza, f.Plaza},
		{domain.ColCategory, f.Category},
		{domain.ColDivision, f.Division},
		{domain.ColFamily, f.Family},
		{domain.ColSegment, f.Segment},
		{domain.ColMarket, f.Market},
		{domain.ColWeek, f.Week},
	}

	var out []domain.Column
	for _, p := range preds {
		if p.want != "" && !net.Has(p.col) {
			out = append(out, p.col)
		}
	}
	return out
}

func match(want, got string) bool {
	return want == "" || want == got
}

// matchArticle is a case-insensitive substring search over description and id.
func matchArticle(needle, description, id string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(description), needle) ||
		strings.Contains(strings.ToLower(id), needle)
}

// DimensionValue returns the grouping key of a loss row for d.
func DimensionValue(r domain.ReconciledRecord, d domain.Dimension) string {
	switch d {
	case domain.DimDay:
		return DayKey(r.Date)
	case domain.DimWeek:
		return r.WeekKey
	case domain.DimMonth:
		return r.MonthKey
	case domain.DimProvider:
		return r.Provider
	case domain.DimPlaza:
		return r.Plaza
	case domain.DimCategory:
		return r.Category
	case domain.DimDivision:
		return r.Division
	case domain.DimMarket:
		return r.Market
	case domain.DimArticle:
		return r.ArticleID
	case domain.DimDescription:
		return r.Description
	case domain.DimFamily:
		return r.Family
	case domain.DimSegment:
		return r.Segment
	case domain.DimStore:
		return r.Store
	}
	return ""
}

// netDimensionValue returns the grouping key of a net-sales row for d and
// whether the net-sales side can be grouped by d at all.
func netDimensionValue(net domain.NetSalesTable, r domain.NetSalesRecord, d domain.Dimension) (string, bool) {
	switch d {
	case domain.DimDay:
		return r.DayKey, net.Has(domain.ColDay)
	case domain.DimWeek:
		return r.WeekKey, net.Has(domain.ColWeek)
	case domain.DimMonth:
		month, _ := MonthKeyFromWeekKey(r.WeekKey)
		return month, net.Has(domain.ColWeek)
	case domain.DimProvider:
		return r.Provider, net.Has(domain.ColProvider)
	case domain.DimPlaza:
		return r.Plaza, net.Has(domain.ColPlaza)
	case domain.DimCategory:
		return r.Category, net.Has(domain.ColCategory)
	case domain.DimDivision:
		return r.Division, net.Has(domain.ColDivision)
	case domain.DimMarket:
		return r.Market, net.Has(domain.ColMarket)
	case domain.DimArticle:
		return r.ArticleID, true
	case domain.DimDescription:
		return r.Description, net.Has(domain.ColDescription)
	case domain.DimFamily:
		return r.Family, net.Has(domain.ColFamily)
	case domain.DimSegment:
		return r.Segment, net.Has(domain.ColSegment)
	}
	return "", false
}

// Group sums the loss amount per distinct dimension tuple. Rows are ordered
// by their keys, which for day, week and month keys is chronological.
func Group(rows []domain.ReconciledRecord, dims []domain.Dimension) domain.Aggregate {
	index := make(map[string]int)
	agg := domain.Aggregate{Dimensions: dims}

	for _, r := range rows {
		keys := make([]string, len(dims))
		for i, d := range dims {
			keys[i] = DimensionValue(r, d)
		}
		k := strings.Join(keys, "\x1f")
		i, ok := index[k]
		if !ok {
			i = len(agg.Rows)
			index[k] = i
			agg.Rows = append(agg.Rows, domain.GroupRow{Keys: keys})
		}
		agg.Rows[i].Loss += r.Amount
	}

	sortRows(agg.Rows)
	return agg
}

// Compare groups loss rows by dims and left-joins the net sales grouped
// independently on the same dims. Net sales stay nil for every row when the
// net-sales side cannot be grouped by one of the dims.
func Compare(rows []domain.ReconciledRecord, net domain.NetSalesTable, dims []domain.Dimension) domain.Aggregate {
	agg := Group(rows, dims)

	netByKey, ok := groupNet(net, dims)
	if !ok {
		return agg
	}
	for i := range agg.Rows {
		if v, found := netByKey[strings.Join(agg.Rows[i].Keys, "\x1f")]; found {
			agg.Rows[i].NetSales = &v
			agg.Rows[i].Ratio = LossRatio(agg.Rows[i].Loss, agg.Rows[i].NetSales)
		}
	}
	return agg
}

func groupNet(net domain.NetSalesTable, dims []domain.Dimension) (map[string]float64, bool) {
	sums := make(map[string]decimal.Decimal)
	for _, r := range net.Records {
		keys := make([]string, len(dims))
		for i, d := range dims {
			v, ok := netDimensionValue(net, r, d)
			if !ok {
				return nil, false
			}
			keys[i] = v
		}
		k := strings.Join(keys, "\x1f")
		sums[k] = sums[k].Add(decimal.NewFromFloat(r.NetSales))
	}

	out := make(map[string]float64, len(sums))
	for k, v := range sums {
		out[k] = v.InexactFloat64()
	}
	return out, true
}

// Cumulative replaces loss and net sales with their running sums ordered by
// timeDim within each partition of the remaining dimensions. Ratios are
// recomputed from the running sums and period change is cleared.
func Cumulative(agg domain.Aggregate, timeDim domain.Dimension) domain.Aggregate {
	t := agg.Index(timeDim)
	if t < 0 {
		return agg
	}

	rows := make([]domain.GroupRow, len(agg.Rows))
	copy(rows, agg.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := partitionKey(rows[i].Keys, t), partitionKey(rows[j].Keys, t)
		if pi != pj {
			return pi < pj
		}
		return rows[i].Keys[t] < rows[j].Keys[t]
	})

	type running struct {
		loss   int64
		net    decimal.Decimal
		hasNet bool
	}
	totals := make(map[string]*running)
	for i := range rows {
		p := partitionKey(rows[i].Keys, t)
		acc, ok := totals[p]
		if !ok {
			acc = &running{}
			totals[p] = acc
		}
		acc.loss += rows[i].Loss
		if rows[i].NetSales != nil {
			acc.net = acc.net.Add(decimal.NewFromFloat(*rows[i].NetSales))
			acc.hasNet = true
		}

		row := domain.GroupRow{Keys: rows[i].Keys, Loss: acc.loss}
		if acc.hasNet {
			v := acc.net.InexactFloat64()
			row.NetSales = &v
			row.Ratio = LossRatio(row.Loss, row.NetSales)
		}
		rows[i] = row
	}

	sortRows(rows)
	return domain.Aggregate{Dimensions: agg.Dimensions, Rows: rows, Accumulated: true}
}

// WithPeriodChange sets Change on every row to the percentage change of its
// loss against the previous time key of the same partition.
func WithPeriodChange(agg domain.Aggregate, timeDim domain.Dimension) domain.Aggregate {
	t := agg.Index(timeDim)
	if t < 0 {
		return agg
	}

	partitions := make(map[string][]int)
	var order []string
	for i, r := range agg.Rows {
		p := partitionKey(r.Keys, t)
		if _, ok := partitions[p]; !ok {
			order = append(order, p)
		}
		partitions[p] = append(partitions[p], i)
	}

	rows := make([]domain.GroupRow, len(agg.Rows))
	copy(rows, agg.Rows)
	for _, p := range order {
		idx := partitions[p]
		sort.SliceStable(idx, func(a, b int) bool { return rows[idx[a]].Keys[t] < rows[idx[b]].Keys[t] })
		values := make([]float64, len(idx))
		for n, i := range idx {
			values[n] = float64(rows[i].Loss)
		}
		for n, change := range PeriodChange(values) {
			rows[idx[n]].Change = change
		}
	}

	return domain.Aggregate{Dimensions: agg.Dimensions, Rows: rows, Accumulated: agg.Accumulated}
}

func partitionKey(keys []string, skip int) string {
	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		if i != skip {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, "\x1f")
}

func sortRows(rows []domain.GroupRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Keys, rows[j].Keys
		for n := range a {
			if a[n] != b[n] {
				return a[n] < b[n]
			}
		}
		return false
	})
}

// LossRatio is loss / net * 100, or nil when net is nil or zero.
func LossRatio(loss int64, net *float64) *float64 {
	if net == nil || *net == 0 {
		return nil
	}
	ratio := decimal.NewFromInt(loss).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(*net)).
		Round(4).
		InexactFloat64()
	return &ratio
}

// PeriodChange returns (v[t]-v[t-1])/v[t-1]*100 per element. The first
// element, and any element whose predecessor is zero, is nil.
func PeriodChange(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		change := decimal.NewFromFloat(values[i]).
			Sub(decimal.NewFromFloat(prev)).
			Div(decimal.NewFromFloat(prev)).
			Mul(decimal.NewFromInt(100)).
			Round(4).
			InexactFloat64()
		out[i] = &change
	}
	return out
}

// UnmatchedRows counts reconciled rows the net-sales join found nothing for.
func UnmatchedRows(rows []domain.ReconciledRecord) int {
	n := 0
	for _, r := range rows {
		if r.NetSales == nil {
			n++
		}
	}
	return n
}

// TotalLoss sums the loss amount of rows.
func TotalLoss(rows []domain.ReconciledRecord) int64 {
	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	return total
}

// TotalNetSales sums net sales, or nil when there are no net-sales rows.
func TotalNetSales(rows []domain.NetSalesRecord) *float64 {
	if len(rows) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(decimal.NewFromFloat(r.NetSales))
	}
	total := sum.InexactFloat64()
	return &total
}

// Options lists the distinct, sorted values of each filterable attribute.
func Options(rows []domain.ReconciledRecord) domain.Options {
	sets := map[string]map[string]struct{}{}
	add := func(name, v string) {
		if v == "" {
			return
		}
		if sets[name] == nil {
			sets[name] = make(map[string]struct{})
		}
		sets[name][v] = struct{}{}
	}
	for _, r := range rows {
		add("provider", r.Provider)
		add("plaza", r.Plaza)
		add("category", r.Category)
		add("division", r.Division)
		add("market", r.Market)
		add("week", r.WeekKey)
		add("family", r.Family)
		add("segment", r.Segment)
	}
	sorted := func(name string) []string {
		out := make([]string, 0, len(sets[name]))
		for v := range sets[name] {
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	}
	return domain.Options{
		Providers:  sorted("provider"),
		Plazas:     sorted("plaza"),
		Categories: sorted("category"),
		Divisions:  sorted("division"),
		Markets:    sorted("market"),
		Weeks:      sorted("week"),
		Families:   sorted("family"),
		Segments:   sorted("segment"),
	}
}
