package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/config"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/internal/shared/testutil"
	"ventaperdida/pkg/contracts/domain"
)

func TestParseNetSalesSheet(t *testing.T) {
	tables := config.DefaultTables()
	data := testutil.Workbook(t, "Venta PR", [][]any{
		{"Reporte Venta PR"},
		{},
		{"Plaza", "División", "Categoría", "Artículo", "Proveedor", "Semana", "Venta Neta Total", "Unnamed: 7"},
		{100.0, 10, "CIGARROS", "123.0", "PHILIP MORRIS MEXICO, S.A. DE C.V.", 202427, 5000, "x"},
		{"100", "10", "CIGARROS", 456, "BAT", "20247", "1,200.50", ""},
		{"100", "10", "CIGARROS", "", "BAT", 202427, 10, ""},
		{"100", "10", "CIGARROS", 789, "PROVEEDOR GENERICO", 202427, 10, ""},
	})

	table, stats, err := ParseNetSalesSheet("venta_pr.xlsx", data, tables)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 2, stats.Dropped)

	for _, c := range []domain.Column{domain.ColPlaza, domain.ColDivision, domain.ColCategory, domain.ColArticle, domain.ColProvider, domain.ColWeek, domain.ColNetSales} {
		assert.True(t, table.Has(c), c)
	}
	assert.False(t, table.Has(domain.ColDay))
	assert.False(t, table.Has(domain.ColMarket))

	require.Len(t, table.Records, 2)
	assert.Equal(t, domain.NetSalesRecord{
		Plaza:     "100",
		Division:  "10",
		Category:  "CIGARROS",
		ArticleID: "123",
		Provider:  "PMI",
		NetSales:  5000,
		WeekKey:   "202427",
	}, table.Records[0])
	assert.Equal(t, "202407", table.Records[1].WeekKey)
	assert.InDelta(t, 1200.50, table.Records[1].NetSales, 0.001)
}

func TestParseNetSalesSheet_AccountingDay(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]any{
		{"Día Contable", "Artículo", "Venta Neta Total"},
		{45474, "123", 300},
		{"03/07/2024", "123", 200},
		{"sin fecha", "123", 100},
	})

	table, _, err := ParseNetSalesSheet("venta_pr.xlsx", data, config.DefaultTables())
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	assert.True(t, table.Has(domain.ColDay))
	assert.True(t, table.Has(domain.ColWeek), "week derived from the accounting day")

	assert.Equal(t, "2024-07-01", table.Records[0].DayKey)
	assert.Equal(t, "202427", table.Records[0].WeekKey)
	assert.Equal(t, "2024-07-03", table.Records[1].DayKey)
	assert.Equal(t, "202427", table.Records[1].WeekKey)
	assert.Equal(t, "", table.Records[2].WeekKey)
}

func TestParseNetSalesSheet_SchemaMismatch(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]any{
		{"Plaza", "Artículo", "Unidades"},
		{"100", "123", 4},
	})

	table, _, err := ParseNetSalesSheet("venta_pr.xlsx", data, config.DefaultTables())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))
	assert.Contains(t, err.Error(), "net_sales")
	assert.Empty(t, table.Records)
}

func TestParseNetSalesSheet_NotAWorkbook(t *testing.T) {
	_, _, err := ParseNetSalesSheet("venta_pr.xlsx", []byte("plaza,articulo\n"), config.DefaultTables())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileParse))
}

func TestParseCatalogSheet(t *testing.T) {
	data := testutil.Workbook(t, "Maestro", [][]any{
		{"ID_ARTICULO", "PROVEEDOR", "FAMILIA", "SEGMENTO", "SUBCATEGORIA", "DESC_ARTICULO"},
		{123.0, "PHILIP MORRIS MEXICO, S.A. DE C.V.", "MARLBORO", "PREMIUM", "CAJETILLA", "MARLBORO ROJO 20"},
		{"", "BAT", "X", "Y", "Z", "SIN ID"},
		{456, "PROVEEDOR GENERICO", "VUSE", "RRP", "POD", "VUSE ALTO POD"},
	})

	entries, stats, err := ParseCatalogSheet("maestro.xlsx", data, config.DefaultTables())
	require.NoError(t, err)
	assert.Equal(t, SheetStats{Rows: 3, Kept: 2, Dropped: 1}, stats)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.CatalogEntry{
		ArticleID:   "123",
		Provider:    "PMI",
		Family:      "MARLBORO",
		Segment:     "PREMIUM",
		Subcategory: "CAJETILLA",
		Description: "MARLBORO ROJO 20",
	}, entries[0])
	assert.Equal(t, "", entries[1].Provider, "removal sentinel never fills a provider")
}

func TestParseCatalogSheet_MissingArticle(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]any{
		{"FAMILIA", "SEGMENTO"},
		{"A", "B"},
	})
	entries, _, err := ParseCatalogSheet("maestro.xlsx", data, config.DefaultTables())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))
	assert.Nil(t, entries)
}
