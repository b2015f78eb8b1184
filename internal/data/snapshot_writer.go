package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/core"
)

// SnapshotTimeLayout is the timestamp embedded in snapshot file names.
const SnapshotTimeLayout = "2006-01-02_15-04"

// SnapshotWriterOptions configures a CSVSnapshotWriter.
type SnapshotWriterOptions struct {
	Root string
	// MaxAge removes snapshots older than this from the written directory.
	// Zero keeps every snapshot.
	MaxAge time.Duration
	Clock  TimeProvider
	Logger *slog.Logger
}

// CSVSnapshotWriter writes pipeline snapshots as CSV files with a header row.
// It implements core.SnapshotWriter.
type CSVSnapshotWriter struct {
	root   string
	maxAge time.Duration
	clock  TimeProvider
	logger *slog.Logger
}

// NewCSVSnapshotWriter creates a writer rooted at opts.Root.
func NewCSVSnapshotWriter(opts SnapshotWriterOptions) *CSVSnapshotWriter {
	w := &CSVSnapshotWriter{
		root:   opts.Root,
		maxAge: opts.MaxAge,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if w.clock == nil {
		w.clock = &RealTimeProvider{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("component", "snapshot_writer")
	return w
}

// SnapshotFileName returns <prefix>_<YYYY-mm-dd_HH-MM>.csv.
func SnapshotFileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, at.Format(SnapshotTimeLayout))
}

// Write stores the snapshot under <root>/<req.Dir>. The file is written to a
// temporary name and renamed so readers never observe a partial snapshot.
func (w *CSVSnapshotWriter) Write(ctx context.Context, req core.SnapshotRequest) (string, error) {
	if req.Prefix == "" {
		return "", ErrSnapshotPrefixRequired
	}
	if strings.ContainsAny(req.Dir, `/\`) || req.Dir == ".." {
		return "", fmt.Errorf("snapshot dir %q must be a single directory name", req.Dir)
	}
	at := req.At
	if at.IsZero() {
		at = w.clock.Now()
	}

	dir := filepath.Join(w.root, req.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, SnapshotFileName(req.Prefix, at))
	tmp, err := os.CreateTemp(dir, "."+req.Prefix+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(req.Header); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write snapshot header: %w", err)
	}
	if err := cw.WriteAll(req.Rows); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write snapshot rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "snapshot written", "path", path, "rows", len(req.Rows))
	w.prune(ctx, dir)
	return path, nil
}

// prune removes snapshots older than maxAge. Failures are logged only.
func (w *CSVSnapshotWriter) prune(ctx context.Context, dir string) {
	if w.maxAge <= 0 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.DebugContext(ctx, "snapshot prune: read dir failed", "dir", dir, "error", err)
		return
	}
	cutoff := w.clock.Now().Add(-w.maxAge)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, infoErr := e.Info()
		if infoErr != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if rmErr := os.Remove(filepath.Join(dir, e.Name())); rmErr != nil {
			w.logger.DebugContext(ctx, "snapshot prune: remove failed", "file", e.Name(), "error", rmErr)
		}
	}
}
