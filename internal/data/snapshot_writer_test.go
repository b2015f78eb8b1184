package data

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/eligibility-sync/internal/core"
)

func TestCSVSnapshotWriter_Write(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	w := NewCSVSnapshotWriter(SnapshotWriterOptions{Root: root, Clock: NewFixedTimeProvider(at)})

	path, err := w.Write(context.Background(), core.SnapshotRequest{
		Dir:    "OSIS",
		Prefix: "intake",
		Header: []string{"patient_id", "note"},
		Rows:   [][]string{{"P1", "has, comma"}, {"P2", ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "OSIS", "intake_2024-03-05_14-07.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"patient_id", "note"}, {"P1", "has, comma"}, {"P2", ""}}, records)

	entries, err := os.ReadDir(filepath.Join(root, "OSIS"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestCSVSnapshotWriter_RejectsNestedDir(t *testing.T) {
	w := NewCSVSnapshotWriter(SnapshotWriterOptions{Root: t.TempDir()})
	_, err := w.Write(context.Background(), core.SnapshotRequest{Dir: "../etc", Prefix: "intake"})
	require.Error(t, err)
}

func TestCSVSnapshotWriter_PrunesOldSnapshots(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	dir := filepath.Join(root, "Dotcare")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	old := filepath.Join(dir, "results_2020-01-01_00-00.csv")
	require.NoError(t, os.WriteFile(old, []byte("x\n"), 0o600))
	require.NoError(t, os.Chtimes(old, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))

	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(keep, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))

	w := NewCSVSnapshotWriter(SnapshotWriterOptions{Root: root, MaxAge: 24 * time.Hour})
	path, err := w.Write(context.Background(), core.SnapshotRequest{
		Dir: "Dotcare", Prefix: "results", Header: []string{"visit_id"}, At: now,
	})
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.NoFileExists(t, old)
	assert.FileExists(t, keep)
}
