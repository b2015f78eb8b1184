//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// SourceID identifies which upstream system a job reads from. It selects the
// row normalizer and the destination tables.
type SourceID string

const (
	// SourcePrimary is the hospital information system keyed by patient and episode.
	SourcePrimary SourceID = "primary"
	// SourceSecondary is the outpatient system keyed by visit.
	SourceSecondary SourceID = "secondary"
)

// Valid returns true if the source id is valid.
func (s SourceID) Valid() bool {
	switch s {
	case SourcePrimary, SourceSecondary:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source id.
func (s SourceID) String() string {
	return string(s)
}

// ParseSourceID parses a case-insensitive source id.
func ParseSourceID(raw string) (SourceID, error) {
	id := SourceID(strings.ToLower(strings.TrimSpace(raw)))
	if !id.Valid() {
		return "", errors.New("source must be one of: primary, secondary")
	}
	return id, nil
}

// Query is an opaque statement handed to a row fetcher.
type Query struct {
	SQL string
	// SinceParam binds the window start as the only statement argument.
	SinceParam bool
}

// Args returns the bind arguments for a fetch starting at since.
func (q Query) Args(since time.Time) []any {
	if !q.SinceParam {
		return nil
	}
	return []any{since}
}

// JobDescriptor describes one configured unit of fetch-enrich-persist work.
// Descriptors are built at startup and never mutated.
type JobDescriptor struct {
	Name       string
	Query      Query
	Source     SourceID
	DataSource string
	// KeyColumns identify duplicate rows. Empty means the whole row is the key.
	KeyColumns []string
	// Columns maps canonical field names to source column names.
	Columns     map[string]string
	SnapshotDir string
}

// Validate checks the descriptor invariants.
func (j JobDescriptor) Validate() error {
	var errs []error
	if strings.TrimSpace(j.Name) == "" {
		errs = append(errs, errors.New("job name is required"))
	}
	if strings.TrimSpace(j.Query.SQL) == "" {
		errs = append(errs, errors.New("job query is required"))
	}
	if !j.Source.Valid() {
		errs = append(errs, errors.New("job source is invalid"))
	}
	if strings.TrimSpace(j.DataSource) == "" {
		errs = append(errs, errors.New("job data source is required"))
	}
	return errors.Join(errs...)
}

// Column returns the source column for a canonical field, defaulting to the
// canonical name itself.
func (j JobDescriptor) Column(field string) string {
	if col, ok := j.Columns[field]; ok && col != "" {
		return col
	}
	return field
}
