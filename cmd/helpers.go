package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/CDR-Shepard/removal-app/internal/allocator"
	cfgpkg "github.com/CDR-Shepard/removal-app/internal/config"
	"github.com/CDR-Shepard/removal-app/internal/dataset"
	"github.com/CDR-Shepard/removal-app/internal/report"
	"github.com/CDR-Shepard/removal-app/internal/utils"
	"github.com/spf13/cobra"
)

// selection is what the user asked to remove, shared by remove and remove-batch.
type selection struct {
	column       string
	fileNames    []string
	values       []string
	allFileNames bool
	allValues    bool
	quota        int
	seed         int64
	dryRun       bool
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// loadInput reads a CSV/TSV file honoring --delimiter, then the config.
func loadInput(path, flagDelim string, c *cfgpkg.Global) (*dataset.Dataset, error) {
	d := flagDelim
	if d == "" {
		d = c.Delimiter
	}
	delim, err := parseDelimiter(d)
	if err != nil {
		return nil, err
	}
	return dataset.LoadFile(path, dataset.LoadOptions{Delimiter: delim, LazyQuotes: true})
}

// resolveSeed prefers an explicitly set --seed over the configured one.
func resolveSeed(cmd *cobra.Command, flagSeed int64, c *cfgpkg.Global) int64 {
	if cmd.Flags().Changed("seed") {
		return flagSeed
	}
	return c.Seed
}

// criteria validates the selection against ds the way the upload form did:
// the dimension column must exist, the second column must exist and differ,
// and the quota must be within [0, rows].
func criteria(cmd *cobra.Command, ds *dataset.Dataset, dim string, sel selection) (allocator.Criteria, error) {
	var c allocator.Criteria
	if !ds.HasColumn(dim) {
		return c, fmt.Errorf("%s does not contain a %q column", ds.Name(), dim)
	}
	if sel.column == "" {
		return c, fmt.Errorf("--column is required (one of: %s)", strings.Join(otherColumns(ds, dim), ", "))
	}
	if sel.column == dim {
		return c, fmt.Errorf("--column must be a column other than %q", dim)
	}
	if !ds.HasColumn(sel.column) {
		return c, fmt.Errorf("%s has no column %q (available: %s)", ds.Name(), sel.column, strings.Join(otherColumns(ds, dim), ", "))
	}
	if sel.quota < 0 || sel.quota > ds.Len() {
		return c, fmt.Errorf("--quota must be between 0 and %d (rows in %s), got %d", ds.Len(), ds.Name(), sel.quota)
	}
	c.Column = sel.column
	c.FileNames = sel.fileNames
	c.Values = sel.values
	var err error
	if sel.allFileNames {
		if c.FileNames, err = ds.Distinct(dim); err != nil {
			return c, err
		}
	}
	if sel.allValues {
		if c.Values, err = ds.Distinct(sel.column); err != nil {
			return c, err
		}
	}
	warnUnknown(cmd, ds, dim, c.FileNames)
	warnUnknown(cmd, ds, sel.column, c.Values)
	return c, nil
}

func otherColumns(ds *dataset.Dataset, dim string) []string {
	var out []string
	for _, n := range ds.Names() {
		if n != dim {
			out = append(out, n)
		}
	}
	return out
}

// warnUnknown flags selected values that never occur; they are kept and
// their share falls to the additional pass.
func warnUnknown(cmd *cobra.Command, ds *dataset.Dataset, column string, selected []string) {
	if len(selected) == 0 {
		return
	}
	present, err := ds.Distinct(column)
	if err != nil {
		return
	}
	set := make(map[string]struct{}, len(present))
	for _, v := range present {
		set[v] = struct{}{}
	}
	for _, v := range selected {
		if _, ok := set[v]; !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %q does not occur in column %q of %s\n", v, column, ds.Name())
		}
	}
}

// runRemoval allocates (or previews) the removal for one dataset.
func runRemoval(cmd *cobra.Command, ds *dataset.Dataset, sel selection, c *cfgpkg.Global) (*report.Report, *dataset.Dataset, error) {
	dim := c.DimensionColumn
	crit, err := criteria(cmd, ds, dim, sel)
	if err != nil {
		return nil, nil, err
	}
	meta := report.Meta{
		Source:          ds.Name(),
		DimensionColumn: dim,
		Column:          crit.Column,
		Quota:           sel.quota,
		RowsBefore:      ds.Len(),
		Seed:            sel.seed,
	}
	opt := allocator.Options{Source: rand.NewSource(sel.seed), DimensionColumn: dim}
	debugf(cmd, "%s: %d rows, %d x %d combinations, quota %d, seed %d",
		ds.Name(), ds.Len(), len(crit.FileNames), len(crit.Values), sel.quota, sel.seed)

	if sel.dryRun {
		pv, err := allocator.Estimate(ds, crit, sel.quota, opt)
		if err != nil {
			return nil, nil, fmt.Errorf("estimate: %w", err)
		}
		debugf(cmd, "per combination %d, additional %d", pv.PerCombination, pv.Additional)
		return report.FromPreview(meta, pv), nil, nil
	}
	res, err := allocator.Allocate(ds, crit, sel.quota, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate: %w", err)
	}
	return report.FromPlan(meta, res.Plan), res.Retained, nil
}

// defaultOutputPath puts "<base><suffix>.csv" next to the input.
func defaultOutputPath(input, dir, suffix string) string {
	base := filepath.Base(input)
	name := utils.SuffixedPath(strings.TrimSuffix(base, filepath.Ext(base))+".csv", suffix)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// reportFormat resolves --report-format, then the report path extension, then the config.
func reportFormat(flagFormat, path string, c *cfgpkg.Global) (report.Format, error) {
	if flagFormat != "" {
		return report.ParseFormat(flagFormat)
	}
	def, err := report.ParseFormat(c.ReportFormat)
	if err != nil {
		return "", err
	}
	if path == "" {
		return def, nil
	}
	return report.FormatFromPath(path, def), nil
}

func printReport(w io.Writer, r *report.Report) {
	fmt.Fprint(w, r.Text())
}
