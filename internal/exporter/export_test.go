package exporter

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ventaperdida/pkg/contracts/domain"
)

func ptr(v float64) *float64 { return &v }

func sampleAggregate() domain.Aggregate {
	return domain.Aggregate{
		Dimensions: []domain.Dimension{domain.DimWeek, domain.DimPlaza},
		Rows: []domain.GroupRow{
			{Keys: []string{"202427", "100"}, Loss: 100, NetSales: ptr(5000), Ratio: ptr(2)},
			{Keys: []string{"202428", "100"}, Loss: 150, Change: ptr(50)},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatCSV},
		{in: "CSV", want: FormatCSV},
		{in: " xlsx ", want: FormatXLSX},
		{in: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestHeadersAndRecords(t *testing.T) {
	agg := sampleAggregate()
	assert.Equal(t, []string{"Semana", "Plaza", HeaderLoss, HeaderNetSales, HeaderRatio, HeaderChange}, Headers(agg))
	assert.Equal(t, [][]string{
		{"202427", "100", "100", "5000.00", "2.00", ""},
		{"202428", "100", "150", "", "", "50.00"},
	}, Records(agg))
}

func TestRender_CSV(t *testing.T) {
	data, err := NewExporter(slog.Default()).Render(FormatCSV, sampleAggregate())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, utf8BOM), "BOM for Excel")
	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Semana", rows[0][0])
	assert.Equal(t, []string{"202427", "100", "100", "5000.00", "2.00", ""}, rows[1])
}

func TestRender_XLSX(t *testing.T) {
	data, err := NewExporter(slog.Default()).Render(FormatXLSX, sampleAggregate())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Semana", rows[0][0])
	assert.Equal(t, "100", rows[1][2])
	assert.Equal(t, "5000", rows[1][3])
	assert.Equal(t, "", rows[2][3])
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := NewExporter(slog.Default()).Render(Format("pdf"), sampleAggregate())
	assert.Error(t, err)
}

func TestCSVWriter_NoBOM(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(slog.Default()).WriteCSV(&buf, WriteOptions{
		Headers: []string{"Plaza"},
		Records: [][]string{{"Ciudad de México"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Plaza\nCiudad de México\n", buf.String())
}
