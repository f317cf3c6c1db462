package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ventaperdida/internal/config"
	"ventaperdida/internal/dataprocessing"
	"ventaperdida/pkg/contracts/domain"
)

// Trace colors.
const (
	ColorLoss     = "rgb(219, 64, 82)"
	ColorNetSales = "rgb(55, 128, 191)"
	ColorProvider = "rgb(255, 165, 0)"
	ColorChange   = "rgb(50, 171, 96)"
	ColorRest     = "#E2E2E2"
)

// Figure ids, stable for clients.
const (
	FigLossOverTime     = "loss_over_time"
	FigPeriodChange     = "loss_period_change"
	FigLossVsNet        = "loss_vs_net"
	FigLossByPlaza      = "loss_by_plaza"
	FigLossByFamily     = "loss_by_family"
	FigLossByProvider   = "loss_by_provider"
	FigFilteredShare    = "filtered_share"
	FigLossByMarket     = "loss_by_market"
	FigTopArticles      = "top_articles"
	FigDivisionArticles = "division_articles"
)

// TopArticles is the number of bars in the top articles figure.
const TopArticles = 10

// Input is what a dashboard is built from. All is the unfiltered loss side;
// Filtered and NetSales already have the filter applied. Unapplied names the
// filter columns the net-sales side could not be narrowed by.
type Input struct {
	All       []domain.ReconciledRecord
	Filtered  []domain.ReconciledRecord
	NetSales  domain.NetSalesTable
	Unapplied []domain.Column
	Tables    *config.Tables
}

// BuildDashboard computes the KPIs and every figure for one view.
func BuildDashboard(in Input, view domain.View, accumulated bool) domain.Dashboard {
	if in.Tables == nil {
		in.Tables = config.DefaultTables()
	}
	timeDim := view.TimeDimension()

	var notes []string
	if note := NetSalesNote(in.Unapplied); note != "" {
		notes = append(notes, note)
	}

	return domain.Dashboard{
		Notes:       notes,
		View:        view,
		Accumulated: accumulated,
		KPIs:        BuildKPIs(in),
		Figures: []domain.Figure{
			lossOverTime(in, timeDim, accumulated),
			periodChange(in, timeDim),
			lossVsNet(in, timeDim, accumulated),
			lossByPlaza(in),
			lossByFamily(in),
			lossByProvider(in),
			filteredShare(in),
			lossByMarket(in),
			topArticles(in),
			divisionArticles(in),
		},
	}
}

// NetSalesNote explains that net sales were not narrowed by some filters, so
// loss-to-net ratios read low. Empty when every filter applied.
func NetSalesNote(unapplied []domain.Column) string {
	if len(unapplied) == 0 {
		return ""
	}
	names := make([]string, len(unapplied))
	for i, c := range unapplied {
		names[i] = string(c)
	}
	return fmt.Sprintf("La venta neta no tiene las columnas %s; no se filtró por ellas y el %% de venta perdida puede subestimarse.",
		strings.Join(names, ", "))
}

// BuildKPIs computes the scalar metrics.
func BuildKPIs(in Input) domain.KPIs {
	k := domain.KPIs{
		FilteredLoss: dataprocessing.TotalLoss(in.Filtered),
		TotalLoss:    dataprocessing.TotalLoss(in.All),
		NetSales:     dataprocessing.TotalNetSales(in.NetSales.Records),
	}
	if k.TotalLoss > 0 {
		share := decimal.NewFromInt(k.FilteredLoss).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(k.TotalLoss)).
			Round(2).
			InexactFloat64()
		k.ShareOfTotal = &share
	}
	k.LossToNetRate = dataprocessing.LossRatio(k.FilteredLoss, k.NetSales)
	return k
}

func lossOverTime(in Input, timeDim domain.Dimension, accumulated bool) domain.Figure {
	fig := domain.Figure{
		ID:     FigLossOverTime,
		Kind:   domain.FigureLine,
		Title:  "Venta Perdida por " + timeDim.Label(),
		XTitle: timeDim.Label(),
		YTitle: "Monto (Pesos)",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{timeDim})
	if accumulated {
		agg = dataprocessing.Cumulative(agg, timeDim)
		fig.Title += " (acumulada)"
	}
	if len(agg.Rows) == 0 {
		return withWarning(fig, "No hay venta perdida para los filtros seleccionados.")
	}

	fig.Series = []domain.Series{lossSeries(agg, domain.FigureLine)}
	return fig
}

func periodChange(in Input, timeDim domain.Dimension) domain.Figure {
	fig := domain.Figure{
		ID:     FigPeriodChange,
		Kind:   domain.FigureBar,
		Title:  "Venta Perdida y % de cambio por " + timeDim.Label(),
		XTitle: timeDim.Label(),
		YTitle: "Monto (Pesos)",
	}
	agg := dataprocessing.WithPeriodChange(dataprocessing.Group(in.Filtered, []domain.Dimension{timeDim}), timeDim)
	if len(agg.Rows) == 0 {
		return withWarning(fig, "No hay venta perdida para los filtros seleccionados.")
	}

	change := domain.Series{Name: "% Cambio", Kind: domain.FigureLine, Color: ColorChange, Axis: "y2"}
	for _, r := range agg.Rows {
		change.X = append(change.X, r.Keys[0])
		change.Y = append(change.Y, r.Change)
		change.Text = append(change.Text, percent(r.Change))
	}
	fig.Series = []domain.Series{lossSeries(agg, domain.FigureBar), change}
	return fig
}

func lossVsNet(in Input, timeDim domain.Dimension, accumulated bool) domain.Figure {
	fig := domain.Figure{
		ID:      FigLossVsNet,
		Kind:    domain.FigureBar,
		Title:   "Venta Perdida vs Venta Neta por " + timeDim.Label(),
		XTitle:  timeDim.Label(),
		YTitle:  "Monto (Pesos)",
		Stacked: true,
	}
	agg := dataprocessing.Compare(in.Filtered, in.NetSales, []domain.Dimension{timeDim})
	if accumulated {
		agg = dataprocessing.Cumulative(agg, timeDim)
	}
	if len(agg.Rows) == 0 {
		return withWarning(fig, "No hay venta perdida para los filtros seleccionados.")
	}

	// stacked bars add up to net sales: lost on the bottom, not lost on top
	lost := lossSeries(agg, domain.FigureBar)
	notLost := domain.Series{Name: "Venta No Perdida", Kind: domain.FigureBar, Color: ColorNetSales}
	matched := false
	for _, r := range agg.Rows {
		notLost.X = append(notLost.X, r.Keys[0])
		notLost.Y = append(notLost.Y, remainder(r.NetSales, r.Loss))
		lost.Text = append(lost.Text, percent(r.Ratio))
		if r.NetSales != nil {
			matched = true
		}
	}
	fig.Series = []domain.Series{lost, notLost}
	if !matched {
		fig.Warning = "No hay venta neta comparable para esta vista."
	}
	return fig
}

func lossByPlaza(in Input) domain.Figure {
	fig := domain.Figure{
		ID:     FigLossByPlaza,
		Kind:   domain.FigureBar,
		Title:  "Venta Perdida por Plaza",
		XTitle: "Plaza",
		YTitle: "Venta Perdida (Pesos)",
	}
	agg := dataprocessing.Compare(in.Filtered, in.NetSales, []domain.Dimension{domain.DimPlaza})
	if emptyDimension(agg) {
		return withWarning(fig, "No se encontraron datos para la columna 'PLAZA'.")
	}

	s := domain.Series{Name: "Venta Perdida", Kind: domain.FigureBar, Color: ColorLoss}
	for _, r := range agg.Rows {
		s.X = append(s.X, displayName(r.Keys[0], in.Tables.PlazaName(r.Keys[0])))
		s.Y = append(s.Y, amount(r.Loss))
		s.Text = append(s.Text, percent(r.Ratio))
	}
	fig.Series = []domain.Series{s}
	return fig
}

func lossByFamily(in Input) domain.Figure {
	fig := domain.Figure{
		ID:     FigLossByFamily,
		Kind:   domain.FigureBar,
		Title:  "Venta Perdida por Familia",
		XTitle: "Familia",
		YTitle: "Venta Perdida (Pesos)",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{domain.DimFamily})
	if emptyDimension(agg) {
		return withWarning(fig, "No se encontraron datos para la columna 'FAMILIA'.")
	}

	byLossDesc(agg.Rows)
	fig.Series = []domain.Series{lossSeries(agg, domain.FigureBar)}
	return fig
}

func lossByProvider(in Input) domain.Figure {
	fig := domain.Figure{
		ID:    FigLossByProvider,
		Kind:  domain.FigurePie,
		Title: "Venta Perdida por Proveedor",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{domain.DimProvider})
	if emptyDimension(agg) {
		return withWarning(fig, "No se encontraron datos para la columna 'PROVEEDOR'.")
	}

	byLossDesc(agg.Rows)
	s := domain.Series{Name: "Venta Perdida", Kind: domain.FigurePie, Color: ColorProvider}
	for _, r := range agg.Rows {
		s.X = append(s.X, in.Tables.ShortProvider(r.Keys[0]))
		s.Y = append(s.Y, amount(r.Loss))
	}
	fig.Series = []domain.Series{s}
	return fig
}

func filteredShare(in Input) domain.Figure {
	fig := domain.Figure{
		ID:    FigFilteredShare,
		Kind:  domain.FigureDonut,
		Title: "Participación de la selección en la Venta Perdida total",
	}
	filtered := dataprocessing.TotalLoss(in.Filtered)
	total := dataprocessing.TotalLoss(in.All)
	if total == 0 {
		return withWarning(fig, "No hay venta perdida registrada.")
	}

	rest := total - filtered
	if rest < 0 {
		rest = 0
	}
	kpis := BuildKPIs(in)
	fig.Series = []domain.Series{{
		Name:  "Venta Perdida",
		Kind:  domain.FigureDonut,
		X:     []string{"Selección", "Resto"},
		Y:     []*float64{amount(filtered), amount(rest)},
		Text:  []string{percent(kpis.ShareOfTotal), ""},
		Color: ColorLoss,
	}}
	return fig
}

func lossByMarket(in Input) domain.Figure {
	fig := domain.Figure{
		ID:     FigLossByMarket,
		Kind:   domain.FigureBar,
		Title:  "Venta Perdida por Mercado",
		XTitle: "Mercado",
		YTitle: "Venta Perdida (Pesos)",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{domain.DimMarket})
	if emptyDimension(agg) {
		return withWarning(fig, "No se encontraron datos para la columna 'MERCADO'.")
	}

	fig.Series = []domain.Series{lossSeries(agg, domain.FigureBar)}
	return fig
}

func topArticles(in Input) domain.Figure {
	fig := domain.Figure{
		ID:     FigTopArticles,
		Kind:   domain.FigureBar,
		Title:  fmt.Sprintf("Top %d artículos con mayor Venta Perdida", TopArticles),
		XTitle: "Artículo",
		YTitle: "Venta Perdida (Pesos)",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{domain.DimArticle, domain.DimDescription})
	if len(agg.Rows) == 0 {
		return withWarning(fig, "No se encontraron datos para la columna 'DESC_ARTICULO'.")
	}

	byLossDesc(agg.Rows)
	if len(agg.Rows) > TopArticles {
		agg.Rows = agg.Rows[:TopArticles]
	}
	s := domain.Series{Name: "Venta Perdida", Kind: domain.FigureBar, Color: ColorLoss}
	for _, r := range agg.Rows {
		s.X = append(s.X, displayName(r.Keys[0], r.Keys[1]))
		s.Y = append(s.Y, amount(r.Loss))
	}
	fig.Series = []domain.Series{s}
	return fig
}

func divisionArticles(in Input) domain.Figure {
	fig := domain.Figure{
		ID:    FigDivisionArticles,
		Kind:  domain.FigureTreemap,
		Title: "Artículos con mayor Venta Perdida por División",
	}
	agg := dataprocessing.Group(in.Filtered, []domain.Dimension{domain.DimDivision, domain.DimArticle, domain.DimDescription})
	if emptyDimension(agg) {
		return withWarning(fig, "No se encontraron datos para la columna 'DIVISION'.")
	}

	totals := map[string]int64{}
	var divisions []string
	for _, r := range agg.Rows {
		if _, ok := totals[r.Keys[0]]; !ok {
			divisions = append(divisions, r.Keys[0])
		}
		totals[r.Keys[0]] += r.Loss
	}
	for _, d := range divisions {
		fig.Nodes = append(fig.Nodes, domain.TreemapNode{
			ID:    "div:" + d,
			Label: displayName(d, in.Tables.DivisionName(d)),
			Value: float64(totals[d]),
		})
	}
	for _, r := range agg.Rows {
		fig.Nodes = append(fig.Nodes, domain.TreemapNode{
			ID:     "div:" + r.Keys[0] + "/art:" + r.Keys[1],
			Label:  displayName(r.Keys[1], r.Keys[2]),
			Parent: "div:" + r.Keys[0],
			Value:  float64(r.Loss),
		})
	}
	return fig
}

func lossSeries(agg domain.Aggregate, kind domain.FigureKind) domain.Series {
	s := domain.Series{Name: "Venta Perdida", Kind: kind, Color: ColorLoss}
	for _, r := range agg.Rows {
		s.X = append(s.X, r.Keys[0])
		s.Y = append(s.Y, amount(r.Loss))
	}
	return s
}

func withWarning(fig domain.Figure, msg string) domain.Figure {
	fig.Warning = msg
	return fig
}

// emptyDimension reports whether a single-dimension aggregate has no rows or
// only the blank key, which happens when the source lacks the column.
func emptyDimension(agg domain.Aggregate) bool {
	return len(agg.Rows) == 0 || allEmpty(agg, 0)
}

func allEmpty(agg domain.Aggregate, i int) bool {
	for _, r := range agg.Rows {
		if r.Keys[i] != "" {
			return false
		}
	}
	return true
}

func byLossDesc(rows []domain.GroupRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Loss > rows[j].Loss })
}

func amount(v int64) *float64 {
	f := float64(v)
	return &f
}

// remainder is net minus loss, nil without net sales.
func remainder(net *float64, loss int64) *float64 {
	if net == nil {
		return nil
	}
	v := decimal.NewFromFloat(*net).Sub(decimal.NewFromInt(loss)).InexactFloat64()
	return &v
}

func percent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *v)
}

// displayName prefers a human label and falls back to the code.
func displayName(code, label string) string {
	if label == "" {
		return code
	}
	return label
}
