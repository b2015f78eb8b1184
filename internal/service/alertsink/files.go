package alertsink

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
)

const (
	filePrefix     = "ALERT_"
	fileExt        = ".txt"
	fileTimeLayout = "20060102_150405"
	// HistoryTimeLayout is the timestamp format of history and header lines.
	HistoryTimeLayout = "2006-01-02 15:04:05"
	maxSubjectChars   = 30
	maxCollisions     = 1000
)

// SanitizeSubject makes subject safe for a file name: every character other
// than ASCII letters, digits, '-' and '.' becomes '_', and the result is
// capped at 30 characters.
func SanitizeSubject(subject string) string {
	var b strings.Builder
	n := 0
	for _, r := range subject {
		if n == maxSubjectChars {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		n++
	}
	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return "alert"
	}
	return out
}

// FileName returns the alert file name for a subject recorded at ts.
func FileName(ts time.Time, subject string) string {
	return filePrefix + ts.Format(fileTimeLayout) + "_" + SanitizeSubject(subject) + fileExt
}

func isAlertFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}

// renderAlert builds the alert file content.
func renderAlert(a model.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "SUBJECT: %s\n", a.Subject)
	fmt.Fprintf(&b, "TIME: %s\n", a.Timestamp.Format(HistoryTimeLayout))
	fmt.Fprintf(&b, "HOST: %s\n", a.Host)
	fmt.Fprintf(&b, "SYSTEM: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "GO: %s\n", runtime.Version())
	if a.Job != "" {
		fmt.Fprintf(&b, "JOB: %s\n", a.Job)
	}
	fmt.Fprintf(&b, "SEVERITY: %s\n", a.Severity)
	fmt.Fprintf(&b, "ID: %s\n", a.ID)
	b.WriteString("\n" + strings.Repeat("=", 50) + "\n\n")
	b.WriteString(a.Body)
	return []byte(b.String())
}

// createExclusive writes content to dir/name, adding a numeric suffix when a
// file with that name already exists. Existing files are never overwritten.
func createExclusive(dir, name string, content []byte) (string, error) {
	base := strings.TrimSuffix(name, fileExt)
	for i := 0; i < maxCollisions; i++ {
		candidate := name
		if i > 0 {
			candidate = base + "_" + strconv.Itoa(i) + fileExt
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create alert file: %w", err)
		}
		if _, err := f.Write(content); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write alert file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close alert file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("create alert file: %d files named %s already exist", maxCollisions, base)
}

// appendLine writes line to path with a single O_APPEND write.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open alert history: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append alert history: %w", err)
	}
	return f.Close()
}

type alertFile struct {
	path    string
	modTime time.Time
}

// listAlertFiles returns the alert files in dir, oldest first.
func listAlertFiles(dir string) ([]alertFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]alertFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isAlertFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, alertFile{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})
	return files, nil
}

// ReadHistory parses the history log. Malformed lines are skipped.
func ReadHistory(path string, loc *time.Location) ([]model.AlertHistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if loc == nil {
		loc = time.Local
	}
	var out []model.AlertHistoryEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		stamp, subject, ok := strings.Cut(sc.Text(), " - ")
		if !ok {
			continue
		}
		ts, err := time.ParseInLocation(HistoryTimeLayout, stamp, loc)
		if err != nil {
			continue
		}
		out = append(out, model.AlertHistoryEntry{Timestamp: ts, Subject: subject})
	}
	return out, sc.Err()
}
