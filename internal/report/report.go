// Package report renders the outcome of a removal run.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/CDR-Shepard/removal-app/internal/allocator"
	"github.com/CDR-Shepard/removal-app/internal/utils"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for a format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts text|txt, json, yaml|yml (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

// FormatFromPath infers the format from a file extension, falling back to def.
func FormatFromPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".md":
		return FormatText
	}
	return def
}

// Entry is one line of the removal report.
type Entry struct {
	FileName   string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
	Additional bool   `json:"additional,omitempty" yaml:"additional,omitempty"`
	Removed    int    `json:"removed" yaml:"removed"`
}

// Label is the printed key of the entry.
func (e Entry) Label() string {
	return allocator.Key{FileName: e.FileName, Value: e.Value, Additional: e.Additional}.String()
}

// Report summarizes one allocation.
type Report struct {
	RunID           string  `json:"run_id" yaml:"run_id"`
	Source          string  `json:"source,omitempty" yaml:"source,omitempty"`
	DimensionColumn string  `json:"dimension_column" yaml:"dimension_column"`
	Column          string  `json:"column" yaml:"column"`
	Quota           int     `json:"quota" yaml:"quota"`
	RowsBefore      int     `json:"rows_before" yaml:"rows_before"`
	RowsAfter       int     `json:"rows_after" yaml:"rows_after"`
	Seed            int64   `json:"seed" yaml:"seed"`
	DryRun          bool    `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Entries         []Entry `json:"entries" yaml:"entries"`
}

// Meta carries the request details that are not part of the plan.
type Meta struct {
	Source          string
	DimensionColumn string
	Column          string
	Quota           int
	RowsBefore      int
	Seed            int64
}

func newReport(m Meta) *Report {
	dim := m.DimensionColumn
	if dim == "" {
		dim = allocator.FileNameColumn
	}
	return &Report{
		RunID:           uuid.NewString(),
		Source:          m.Source,
		DimensionColumn: dim,
		Column:          m.Column,
		Quota:           m.Quota,
		RowsBefore:      m.RowsBefore,
		Seed:            m.Seed,
		Entries:         []Entry{},
	}
}

// FromPlan builds a report from a completed allocation.
func FromPlan(m Meta, plan *allocator.Plan) *Report {
	r := newReport(m)
	for _, e := range plan.Entries() {
		r.Entries = append(r.Entries, Entry{FileName: e.Key.FileName, Value: e.Key.Value, Additional: e.Key.Additional, Removed: e.Count})
	}
	r.RowsAfter = r.RowsBefore - plan.Total()
	return r
}

// FromPreview builds a dry-run report; zero-count combinations are omitted
// the same way Allocate omits them.
func FromPreview(m Meta, pv *allocator.Preview) *Report {
	r := newReport(m)
	r.DryRun = true
	total := 0
	for _, row := range pv.Rows {
		if row.Planned == 0 {
			continue
		}
		r.Entries = append(r.Entries, Entry{FileName: row.Key.FileName, Value: row.Key.Value, Removed: row.Planned})
		total += row.Planned
	}
	if pv.Additional > 0 {
		r.Entries = append(r.Entries, Entry{Additional: true, Removed: pv.Additional})
		total += pv.Additional
	}
	r.RowsAfter = r.RowsBefore - total
	return r
}

// Removed is the total across entries.
func (r *Report) Removed() int {
	n := 0
	for _, e := range r.Entries {
		n += e.Removed
	}
	return n
}

// Lines returns one "<label>: N records removed" line per entry.
func (r *Report) Lines() []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, fmt.Sprintf("%s: %d records removed", e.Label(), e.Removed))
	}
	return out
}

// Text renders the human-readable report.
func (r *Report) Text() string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString("[REMOVAL PLAN (DRY RUN)]\n")
	} else {
		b.WriteString("[REMOVAL SUMMARY]\n")
	}
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Columns: %s x %s\n", r.DimensionColumn, r.Column))
	b.WriteString(fmt.Sprintf("Rows: %d -> %d (removed %d of quota %d)\n", r.RowsBefore, r.RowsAfter, r.Removed(), r.Quota))
	b.WriteString(fmt.Sprintf("Seed: %d\n", r.Seed))
	b.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	b.WriteString("[REMOVAL DETAILS]\n")
	lines := r.Lines()
	if len(lines) == 0 {
		b.WriteString("(nothing removed)\n")
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return utils.PrettyJSON(r)
}

// YAML renders the report as YAML.
func (r *Report) YAML() ([]byte, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yaml")
	}
	return b, nil
}

// Render returns the report in the given format.
func (r *Report) Render(f Format) ([]byte, error) {
	switch f {
	case FormatText, "":
		return []byte(r.Text()), nil
	case FormatJSON:
		return r.JSON()
	case FormatYAML:
		return r.YAML()
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", string(f))
	}
}

// Write renders the report to path.
func (r *Report) Write(path string, f Format) error {
	b, err := r.Render(f)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}
