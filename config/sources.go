package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/target/eligibility-sync/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML document listing data sources. Environment
// references such as ${OSIS_DSN} are expanded before parsing.
//
//	sources:
//	  - name: OSIS
//	    source: primary
//	    driver: pgx
//	    dsn: ${OSIS_DSN}
//	    query_file: queries/eligibility_osis.sql
//	    since_param: true
//	    key_columns: [patient_id, episode_no]
//	    snapshot_dir: OSIS
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one named data source and the job reading from it.
type SourceConfig struct {
	Name         string            `yaml:"name"`
	Source       string            `yaml:"source"`
	Driver       string            `yaml:"driver"`
	DSN          string            `yaml:"dsn"`
	Query        string            `yaml:"query"`
	QueryFile    string            `yaml:"query_file"`
	SinceParam   bool              `yaml:"since_param"`
	KeyColumns   []string          `yaml:"key_columns"`
	Columns      map[string]string `yaml:"columns"`
	SnapshotDir  string            `yaml:"snapshot_dir"`
	MaxOpenConns int               `yaml:"max_open_conns"`
	Disabled     bool              `yaml:"disabled"`
}

// SupportedDrivers lists the database/sql driver names a source may use.
func SupportedDrivers() []string {
	return []string{"pgx", "postgres", "sqlite"}
}

// LoadSources reads, expands and validates the sources file. Query files are
// resolved relative to the sources file and inlined into Query.
func LoadSources(path string) ([]SourceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	sources, err := ParseSources([]byte(os.ExpandEnv(string(raw))))
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	var errs []error
	for i := range sources {
		if sources[i].QueryFile == "" {
			continue
		}
		qpath := sources[i].QueryFile
		if !filepath.IsAbs(qpath) {
			qpath = filepath.Join(baseDir, qpath)
		}
		q, readErr := os.ReadFile(qpath)
		if readErr != nil {
			errs = append(errs, fmt.Errorf("source %q: read query file: %w", sources[i].Name, readErr))
			continue
		}
		sources[i].Query = strings.TrimSpace(string(q))
		if sources[i].Query == "" {
			errs = append(errs, fmt.Errorf("source %q: query file %s is empty", sources[i].Name, qpath))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sources, nil
}

// ParseSources decodes and validates an already expanded sources document.
// Disabled sources are dropped from the result.
func ParseSources(doc []byte) ([]SourceConfig, error) {
	var file SourcesFile
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	var (
		out  []SourceConfig
		errs []error
		seen = make(map[string]bool)
	)
	for i := range file.Sources {
		src := file.Sources[i]
		src.sanitize()
		if src.Disabled {
			continue
		}
		if err := src.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("source #%d: %w", i+1, err))
			continue
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("source %q is defined more than once", src.Name))
			continue
		}
		seen[key] = true
		out = append(out, src)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(out) == 0 {
		return nil, errors.New("sources file defines no enabled sources")
	}
	return out, nil
}

func (s *SourceConfig) sanitize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Source = strings.ToLower(strings.TrimSpace(s.Source))
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	s.DSN = strings.TrimSpace(s.DSN)
	s.Query = strings.TrimSpace(s.Query)
	s.QueryFile = strings.TrimSpace(s.QueryFile)
	s.KeyColumns = trimList(s.KeyColumns)
	if s.Driver == "" {
		s.Driver = "pgx"
	}
	if s.SnapshotDir = strings.TrimSpace(s.SnapshotDir); s.SnapshotDir == "" {
		s.SnapshotDir = s.Name
	}
	if s.MaxOpenConns <= 0 {
		s.MaxOpenConns = 2
	}
}

// Validate checks a single source definition.
func (s *SourceConfig) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := model.ParseSourceID(s.Source); err != nil {
		errs = append(errs, err)
	}
	if !isSupportedDriver(s.Driver) {
		errs = append(errs, fmt.Errorf("driver %q is not supported (use one of %s)",
			s.Driver, strings.Join(SupportedDrivers(), ", ")))
	}
	if s.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	}
	switch {
	case s.Query == "" && s.QueryFile == "":
		errs = append(errs, errors.New("one of query or query_file is required"))
	case s.Query != "" && s.QueryFile != "":
		errs = append(errs, errors.New("query and query_file are mutually exclusive"))
	}
	if strings.ContainsAny(s.SnapshotDir, `/\`) || s.SnapshotDir == ".." {
		errs = append(errs, errors.New("snapshot_dir must be a single directory name"))
	}
	return errors.Join(errs...)
}

// JobDescriptor builds the immutable job description for this source.
func (s *SourceConfig) JobDescriptor() (model.JobDescriptor, error) {
	id, err := model.ParseSourceID(s.Source)
	if err != nil {
		return model.JobDescriptor{}, err
	}
	columns := make(map[string]string, len(s.Columns))
	for k, v := range s.Columns {
		columns[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	job := model.JobDescriptor{
		Name:        s.Name,
		Query:       model.Query{SQL: s.Query, SinceParam: s.SinceParam},
		Source:      id,
		DataSource:  s.Name,
		KeyColumns:  append([]string(nil), s.KeyColumns...),
		Columns:     columns,
		SnapshotDir: s.SnapshotDir,
	}
	return job, job.Validate()
}

func isSupportedDriver(name string) bool {
	for _, d := range SupportedDrivers() {
		if d == name {
			return true
		}
	}
	return false
}
