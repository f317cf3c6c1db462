package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/config"
	"ventaperdida/internal/files"
	"ventaperdida/internal/shared/testutil"
)

// MockStore is a mock for the files.Store interface. Expectations without
// return values delegate to the embedded store.
type MockStore struct {
	mock.Mock
	files.Store
}

func (m *MockStore) Backend() string { return "mock" }

func (m *MockStore) List(ctx context.Context, dir string) ([]files.FileInfo, error) {
	args := m.Called(ctx, dir)
	if len(args) == 0 {
		return m.Store.List(ctx, dir)
	}
	listing, _ := args.Get(0).([]files.FileInfo)
	return listing, args.Error(1)
}

func (m *MockStore) Fetch(ctx context.Context, handle string) ([]byte, error) {
	m.Called(ctx, handle)
	return m.Store.Fetch(ctx, handle)
}

func testSources() config.SourcesConfig {
	return config.SourcesConfig{LossDir: "venta_perdida", NetSalesDir: "venta_neta", CatalogDir: "maestro"}
}

func writeSource(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func lossRow(plaza, provider, description, amount string) []string {
	return []string{plaza, "10", "1001", "CIGARROS", "123", description, "7501", provider, "TIENDA", amount}
}

// seedSources writes two weekly loss extracts, a net-sales sheet and a
// catalog under a temporary root.
func seedSources(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	lossDir := filepath.Join(root, "venta_perdida")

	writeSource(t, lossDir, "01072024.csv", testutil.LossCSV(testutil.LossHeader,
		lossRow("100", "PMI", "MARLBORO ROJO 20", "100"),
		lossRow("200", "BAT", "VUSE ALTO POD", "40")))
	writeSource(t, lossDir, "08072024.csv", testutil.LossCSV(testutil.LossHeader,
		lossRow("100", "PMI", "MARLBORO ROJO 20", "150")))
	writeSource(t, lossDir, "roto.csv", testutil.LossCSV(testutil.LossHeader,
		lossRow("100", "PMI", "MARLBORO ROJO 20", "999")))

	writeSource(t, filepath.Join(root, "venta_neta"), "venta_pr.xlsx", testutil.Workbook(t, "Sheet1", [][]any{
		{"Plaza", "División", "Categoría", "Artículo", "Proveedor", "Semana", "Venta Neta Total"},
		{"100", "10", "CIGARROS", "123", "PMI", "202427", 5000},
		{"100", "10", "CIGARROS", "123", "PMI", "202428", 5000},
	}))

	writeSource(t, filepath.Join(root, "maestro"), "maestro.xlsx", testutil.Workbook(t, "Sheet1", [][]any{
		{"ID_ARTICULO", "FAMILIA", "SEGMENTO"},
		{"123", "MARLBORO", "PREMIUM"},
	}))
	return root
}
