package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/config"
	"ventaperdida/internal/dataprocessing"
	"ventaperdida/pkg/contracts/domain"
)

func row(day int, plaza, division, provider, article, desc, family string, amount int64) domain.ReconciledRecord {
	date := time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC)
	r := domain.ReconciledRecord{}
	r.Date = date
	r.Week, r.WeekKey = dataprocessing.WeekKey(date)
	r.MonthKey = dataprocessing.MonthKey(date)
	r.Plaza = plaza
	r.Division = division
	r.Market = "1001"
	r.Category = "CIGARROS"
	r.Provider = provider
	r.ArticleID = article
	r.Description = desc
	r.Family = family
	r.Amount = amount
	return r
}

func testInput() Input {
	all := []domain.ReconciledRecord{
		row(1, "100", "10", "PMI", "123", "MARLBORO ROJO", "MARLBORO", 100),
		row(8, "100", "10", "PMI", "123", "MARLBORO ROJO", "MARLBORO", 150),
		row(1, "200", "20", "BAT", "456", "VUSE ALTO POD", "VUSE", 50),
	}
	net := domain.NetSalesTable{
		Columns: map[domain.Column]bool{domain.ColArticle: true, domain.ColWeek: true, domain.ColPlaza: true, domain.ColProvider: true},
		Records: []domain.NetSalesRecord{{Plaza: "100", Provider: "PMI", ArticleID: "123", WeekKey: "202427", NetSales: 5000}},
	}
	filter := domain.Filter{Provider: "PMI"}
	return Input{
		All:      all,
		Filtered: dataprocessing.Apply(all, filter),
		NetSales: dataprocessing.FilterNetSales(net, filter),
		Tables:   config.DefaultTables(),
	}
}

func figure(t *testing.T, d domain.Dashboard, id string) domain.Figure {
	t.Helper()
	for _, f := range d.Figures {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("figure %s not found", id)
	return domain.Figure{}
}

func TestBuildKPIs(t *testing.T) {
	k := BuildKPIs(testInput())
	assert.Equal(t, int64(250), k.FilteredLoss)
	assert.Equal(t, int64(300), k.TotalLoss)
	require.NotNil(t, k.ShareOfTotal)
	assert.InDelta(t, 83.33, *k.ShareOfTotal, 1e-9)
	require.NotNil(t, k.NetSales)
	assert.Equal(t, 5000.0, *k.NetSales)
	require.NotNil(t, k.LossToNetRate)
	assert.InDelta(t, 5.0, *k.LossToNetRate, 1e-9)

	empty := BuildKPIs(Input{})
	assert.Nil(t, empty.ShareOfTotal)
	assert.Nil(t, empty.NetSales)
	assert.Nil(t, empty.LossToNetRate)
}

func TestBuildDashboard_Weekly(t *testing.T) {
	d := BuildDashboard(testInput(), domain.ViewWeekly, false)
	assert.Len(t, d.Figures, 10)
	assert.Equal(t, domain.ViewWeekly, d.View)

	overTime := figure(t, d, FigLossOverTime)
	require.Len(t, overTime.Series, 1)
	assert.Equal(t, []string{"202427", "202428"}, overTime.Series[0].X)
	assert.Equal(t, 100.0, *overTime.Series[0].Y[0])
	assert.Equal(t, 150.0, *overTime.Series[0].Y[1])

	vsNet := figure(t, d, FigLossVsNet)
	assert.True(t, vsNet.Stacked)
	require.Len(t, vsNet.Series, 2)
	assert.Equal(t, "2.0%", vsNet.Series[0].Text[0])
	assert.Equal(t, "Venta No Perdida", vsNet.Series[1].Name)
	assert.Equal(t, 4900.0, *vsNet.Series[1].Y[0])
	assert.Nil(t, vsNet.Series[1].Y[1])
	assert.Empty(t, vsNet.Warning)

	change := figure(t, d, FigPeriodChange)
	require.Len(t, change.Series, 2)
	assert.Equal(t, "y2", change.Series[1].Axis)
	assert.Nil(t, change.Series[1].Y[0])
	assert.InDelta(t, 50.0, *change.Series[1].Y[1], 1e-9)

	plaza := figure(t, d, FigLossByPlaza)
	assert.Equal(t, []string{"Monterrey"}, plaza.Series[0].X)

	provider := figure(t, d, FigLossByProvider)
	assert.Equal(t, domain.FigurePie, provider.Kind)
	assert.Equal(t, []string{"PMI"}, provider.Series[0].X)

	share := figure(t, d, FigFilteredShare)
	assert.Equal(t, 250.0, *share.Series[0].Y[0])
	assert.Equal(t, 50.0, *share.Series[0].Y[1])

	market := figure(t, d, FigLossByMarket)
	assert.Equal(t, []string{"1001"}, market.Series[0].X)

	top := figure(t, d, FigTopArticles)
	assert.Equal(t, []string{"MARLBORO ROJO"}, top.Series[0].X)

	tree := figure(t, d, FigDivisionArticles)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "Norte", tree.Nodes[0].Label)
	assert.Equal(t, "", tree.Nodes[0].Parent)
	assert.Equal(t, tree.Nodes[0].ID, tree.Nodes[1].Parent)
	assert.Equal(t, 250.0, tree.Nodes[1].Value)
}

func TestBuildDashboard_Accumulated(t *testing.T) {
	d := BuildDashboard(testInput(), domain.ViewWeekly, true)
	assert.True(t, d.Accumulated)

	overTime := figure(t, d, FigLossOverTime)
	assert.Equal(t, 100.0, *overTime.Series[0].Y[0])
	assert.Equal(t, 250.0, *overTime.Series[0].Y[1])

	vsNet := figure(t, d, FigLossVsNet)
	require.NotNil(t, vsNet.Series[1].Y[1], "running net carries forward")
	assert.Equal(t, 4750.0, *vsNet.Series[1].Y[1])
}

func TestBuildDashboard_LossVsNetStacksToNetSales(t *testing.T) {
	for _, accumulated := range []bool{false, true} {
		d := BuildDashboard(testInput(), domain.ViewWeekly, accumulated)
		vsNet := figure(t, d, FigLossVsNet)
		cmp := dataprocessing.Compare(testInput().Filtered, testInput().NetSales, []domain.Dimension{domain.DimWeek})
		if accumulated {
			cmp = dataprocessing.Cumulative(cmp, domain.DimWeek)
		}
		require.Len(t, vsNet.Series[0].Y, len(cmp.Rows))

		for i, r := range cmp.Rows {
			if r.NetSales == nil {
				assert.Nil(t, vsNet.Series[1].Y[i])
				continue
			}
			stacked := *vsNet.Series[0].Y[i] + *vsNet.Series[1].Y[i]
			assert.InDelta(t, *r.NetSales, stacked, 1e-9, "week %s accumulated=%v", r.Keys[0], accumulated)
		}
	}
}

func TestBuildDashboard_NetSalesNote(t *testing.T) {
	in := testInput()
	assert.Empty(t, BuildDashboard(in, domain.ViewWeekly, false).Notes)

	in.Unapplied = []domain.Column{domain.ColMarket}
	d := BuildDashboard(in, domain.ViewWeekly, false)
	require.Len(t, d.Notes, 1)
	assert.Equal(t, NetSalesNote(in.Unapplied), d.Notes[0])
	assert.Contains(t, d.Notes[0], "market")
	assert.Empty(t, NetSalesNote(nil))
}

func TestBuildDashboard_DailyWithoutNetDays(t *testing.T) {
	d := BuildDashboard(testInput(), domain.ViewDaily, false)
	vsNet := figure(t, d, FigLossVsNet)
	assert.NotEmpty(t, vsNet.Warning, "net-sales side has no accounting day")
	assert.Equal(t, []string{"2024-07-01", "2024-07-08"}, vsNet.Series[0].X)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(Input{}, domain.ViewMonthly, false)
	require.Len(t, d.Figures, 10)
	for _, f := range d.Figures {
		assert.NotEmpty(t, f.Warning, f.ID)
	}
}

func TestBuildDashboard_MissingFamilyColumn(t *testing.T) {
	in := testInput()
	for i := range in.Filtered {
		in.Filtered[i].Family = ""
	}
	d := BuildDashboard(in, domain.ViewWeekly, false)
	assert.Contains(t, figure(t, d, FigLossByFamily).Warning, "FAMILIA")
}
