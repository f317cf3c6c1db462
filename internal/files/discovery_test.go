package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ventaperdida/internal/errors"
)

func createFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func TestFindByExtension(t *testing.T) {
	tempDir := t.TempDir()
	createFiles(t, filepath.Join(tempDir, "venta_perdida"),
		"08072024.csv", "01072024.CSV", "notes.txt", "venta_pr.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "venta_perdida", "old.csv"), 0755))

	store := NewLocalStore(tempDir)

	tests := []struct {
		name string
		ext  string
		want []string
	}{
		{name: "csv is case insensitive and sorted", ext: ExtCSV, want: []string{"01072024.CSV", "08072024.csv"}},
		{name: "xlsx", ext: ExtXLSX, want: []string{"venta_pr.xlsx"}},
		{name: "no match", ext: ".json", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := FindByExtension(context.Background(), store, "venta_perdida", tt.ext)
			require.NoError(t, err)

			var names []string
			for _, f := range files {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestLocalStore_MissingDirectory(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.List(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))

	_, err = store.Fetch(context.Background(), "nope.csv")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnavailable))
}

func TestLocalStore_Fetch(t *testing.T) {
	tempDir := t.TempDir()
	createFiles(t, tempDir, "01072024.csv")
	store := NewLocalStore(tempDir)

	listing, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, listing, 1)

	data, err := store.Fetch(context.Background(), listing[0].Handle)
	require.NoError(t, err)
	assert.Equal(t, "01072024.csv", string(data))
}

func TestLocalStore_RelativeRoot(t *testing.T) {
	workDir := t.TempDir()
	createFiles(t, filepath.Join(workDir, "data", "venta_perdida"), "01072024.csv")

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	store := NewLocalStore("data")
	files, err := FindByExtension(context.Background(), store, "venta_perdida", ExtCSV)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join("venta_perdida", "01072024.csv"), files[0].Handle)

	data, err := store.Fetch(context.Background(), files[0].Handle)
	require.NoError(t, err)
	assert.Equal(t, "01072024.csv", string(data))
}

func TestLocalStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalStore(t.TempDir()).List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	now := time.Date(2024, 7, 8, 10, 0, 0, 0, time.UTC)
	a := FileInfo{Name: "01072024.csv", Handle: "loss/01072024.csv", Size: 10, ModTime: now}
	b := FileInfo{Name: "08072024.csv", Handle: "loss/08072024.csv", Size: 20, ModTime: now}

	base := Fingerprint([]FileInfo{a, b})
	assert.Len(t, base, 16)
	assert.Equal(t, base, Fingerprint([]FileInfo{b, a}), "order independent")

	touched := b
	touched.ModTime = now.Add(time.Minute)
	assert.NotEqual(t, base, Fingerprint([]FileInfo{a, touched}))

	resized := b
	resized.Size = 21
	assert.NotEqual(t, base, Fingerprint([]FileInfo{a, resized}))

	reversioned := b
	reversioned.Version = "sha2"
	assert.NotEqual(t, base, Fingerprint([]FileInfo{a, reversioned}))

	assert.NotEqual(t, base, Fingerprint([]FileInfo{a}))
	assert.Equal(t, base, Fingerprint([]FileInfo{a}, []FileInfo{b}), "groups are flattened")
}


func TestManager_WriteFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, testLogger(t))

	path, err := m.WriteFile(filepath.Join("exports", "loss_by_week.csv"), []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "loss_by_week.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	// overwrite leaves no temp files behind
	_, err = m.WriteFile(filepath.Join("exports", "loss_by_week.csv"), []byte("c\n"))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
