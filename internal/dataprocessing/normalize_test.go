package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/config"
	"ventaperdida/pkg/contracts/domain"
)

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "dia contable", foldHeader("  Día   Contable "))
	assert.Equal(t, "venta perdida pesos", foldHeader("VENTA_PERDIDA_PESOS"))
	assert.Equal(t, "categoria", foldHeader("Categoría"))
}

func TestHeaderResolver(t *testing.T) {
	r := newHeaderResolver(config.DefaultTables())

	headers := []string{"PLAZA", "Unnamed: 1", "", "INV_TIENDA", "Categoría", "ID_ARTICULO", "Artículo", "venta perdida pesos"}
	got := r.resolve(headers)

	assert.Equal(t, map[domain.Column]int{
		domain.ColPlaza:      0,
		domain.ColCategory:   4,
		domain.ColArticle:    5,
		domain.ColLossAmount: 7,
	}, got)

	missing := missingColumns(got, domain.ColPlaza, domain.ColProvider, domain.ColDivision)
	assert.Equal(t, []string{"provider", "division"}, missing)
}

func TestCell(t *testing.T) {
	positions := map[domain.Column]int{domain.ColPlaza: 0, domain.ColStore: 5}
	row := []string{" 100 ", "x"}

	assert.Equal(t, "100", cell(row, positions, domain.ColPlaza))
	assert.Equal(t, "", cell(row, positions, domain.ColStore), "short row")
	assert.Equal(t, "", cell(row, positions, domain.ColMarket), "absent column")
}

func TestNormalizeCode(t *testing.T) {
	tests := map[string]string{
		"100.0":    "100",
		" 0042 ":   "42",
		"0042.0":   "42",
		"000":      "0",
		"-7":       "-7",
		"123":      "123",
		"1.5":      "1.5",
		"1e3":      "1000",
		"ABC":      "ABC",
		"":         "",
		"7501.00":  "7501",
		"CIG.ARRO": "CIG.ARRO",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCode(in), in)
	}
}

func TestNormalizeCode_TypedAndTextualCellsAgree(t *testing.T) {
	pairs := [][2]string{
		{"0042", "0042.0"},
		{"0042", "42"},
		{"100", "100.0"},
		{"07501", "7501.00"},
	}
	for _, p := range pairs {
		assert.Equal(t, NormalizeCode(p[0]), NormalizeCode(p[1]), "%q vs %q", p[0], p[1])
	}
}

func TestTruncateCode(t *testing.T) {
	assert.Equal(t, "100", truncateCode("10023", 3))
	assert.Equal(t, "10", truncateCode("10.0", 3))
	assert.Equal(t, "1002", truncateCode("100234.0", 4))
	assert.Equal(t, "10023", truncateCode("10023", 0))
}

func TestRecodeProvider(t *testing.T) {
	tables := config.DefaultTables()

	tests := []struct {
		raw      string
		want     string
		wantKeep bool
	}{
		{"PHILIP MORRIS MEXICO, S.A. DE C.V.", "PMI", true},
		{" BRITISH AMERICAN TOBACCO MEXICO ", "BAT", true},
		{"OTRO PROVEEDOR", "OTRO PROVEEDOR", true},
		{"PROVEEDOR GENERICO", "ELIMINAR", false},
		{"ELIMINAR", "ELIMINAR", false},
		// Exact match only.
		{"philip morris mexico, s.a. de c.v.", "philip morris mexico, s.a. de c.v.", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, keep := recodeProvider(tt.raw, tables)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantKeep, keep)
		})
	}
}

func TestIsBrand(t *testing.T) {
	for _, desc := range []string{"VUSE ALTO POD", "vuse go", "Cartucho Vuse ePod", "xVUSEx"} {
		assert.True(t, isBrand(desc, "vuse"), desc)
	}
	assert.False(t, isBrand("MARLBORO ROJO 20", "vuse"))
	assert.False(t, isBrand("VUSE", ""))
}

func TestAmountRounding(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"2.5", 3},
		{"3.5", 4},
		{"1.49", 1},
		{"$1,234.50", 1235},
		{" 99.999 ", 100},
		{"", 0},
		{"-", 0},
		{"-2.5", 0},
		{"-0.4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := parseAmount(tt.in)
			require.NoError(t, err)
			got := roundAmount(d)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}

	_, err := parseAmount("N/A")
	assert.Error(t, err)
}
