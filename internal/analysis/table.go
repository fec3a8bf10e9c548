package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
)

// Options controls profiling of a loaded dataset.
type Options struct {
	// TopValues caps how many most-frequent values are listed per column.
	TopValues int
	// ListValues lists every distinct value when a column has at most this many.
	ListValues int
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// DimensionColumn is the column removals are keyed on; a warning is
	// emitted if it is missing.
	DimensionColumn string
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		TopValues:       8,
		ListValues:      25,
		SampleRows:      5,
		DimensionColumn: "file name",
	}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Cross    *CrossTab
}

// ColumnSummary captures inferred kind and value counts per column.
type ColumnSummary struct {
	Name     string
	Kind     string // numeric|categorical|text
	NonEmpty int
	Missing  int
	Unique   int
	// TopValues are the most frequent values, by count then value.
	TopValues []CategoryCount
	// Values are all distinct values in first-occurrence order, filled only
	// when Unique <= Options.ListValues.
	Values []string
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile summarizes every column of ds.
func Profile(ds *dataset.Dataset, opt Options) (*Report, error) {
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	rep := &Report{Name: ds.Name(), Rows: ds.Len()}
	for _, name := range ds.Names() {
		vals, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		rep.Cols = append(rep.Cols, summarize(name, vals, opt))
	}
	for i := 0; i < opt.SampleRows && i < ds.Len(); i++ {
		rep.Samples = append(rep.Samples, ds.Row(i))
	}
	if opt.DimensionColumn != "" && !ds.HasColumn(opt.DimensionColumn) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("no %q column: removal will refuse this file", opt.DimensionColumn))
	}
	return rep, nil
}

func summarize(name string, vals []string, opt Options) ColumnSummary {
	s := ColumnSummary{Name: name}
	counts := map[string]int{}
	var order []string
	numeric := true
	for _, v := range vals {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
		t := strings.TrimSpace(v)
		if t == "" {
			s.Missing++
			continue
		}
		s.NonEmpty++
		if numeric {
			if _, err := strconv.ParseFloat(t, 64); err != nil {
				numeric = false
			}
		}
	}
	s.Unique = len(counts)
	switch {
	case s.NonEmpty > 0 && numeric:
		s.Kind = "numeric"
	case s.Unique*2 <= len(vals) || s.Unique <= opt.ListValues:
		s.Kind = "categorical"
	default:
		s.Kind = "text"
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if opt.TopValues > 0 && len(tops) > opt.TopValues {
		tops = tops[:opt.TopValues]
	}
	s.TopValues = tops
	if s.Unique <= opt.ListValues {
		s.Values = order
	}
	return s
}

// Column returns the summary for name.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Markdown renders a compact report for the terminal or a file.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonEmpty + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-empty %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonEmpty, missPct, c.Unique))
		if len(c.TopValues) > 0 && c.Kind != "text" {
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	listed := false
	for _, c := range r.Cols {
		if len(c.Values) == 0 {
			continue
		}
		if !listed {
			b.WriteString("\n[SELECTABLE VALUES]\n")
			listed = true
		}
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			quoted[i] = strconv.Quote(v)
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(c.Name), strings.Join(quoted, ", ")))
	}

	if r.Cross != nil {
		b.WriteString("\n")
		b.WriteString(r.Cross.Markdown())
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
