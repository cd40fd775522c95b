package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportStoreSaveAndOpen(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("stu-1/2024-11.csv", []byte("Metric,Value\n"))
	require.NoError(t, err)
	require.Equal(t, "stu-1/2024-11.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "Metric,Value\n", string(data))
}

func TestReportStoreOpenMissing(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("nope.pdf")
	require.Error(t, err)
}

func TestReportStoreSweep(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)

	stale, err := store.Save("stu-1/old.csv", []byte("old"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, stale), past, past))

	fresh, err := store.Save("stu-1/new.csv", []byte("new"))
	require.NoError(t, err)

	deleted, err := store.Sweep(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.FromSlash("stu-1/old.csv")}, deleted)

	_, err = store.Open(fresh)
	require.NoError(t, err)
}
