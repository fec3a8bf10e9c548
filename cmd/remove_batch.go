package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CDR-Shepard/removal-app/internal/report"
	"github.com/CDR-Shepard/removal-app/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"
)

var (
	rbColumn       string
	rbFileNames    []string
	rbValues       []string
	rbAllFileNames bool
	rbAllValues    bool
	rbQuota        int
	rbSeed         int64
	rbOutDir       string
	rbReportDir    string
	rbReportFormat string
	rbDelimiter    string
	rbDryRun       bool
	rbQuiet        bool
)

var removeBatchCmd = &cobra.Command{
	Use:   "remove-batch <files...>",
	Short: "Apply the same removal to multiple CSV/TSV files with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		c, err := settings()
		if err != nil {
			return err
		}
		var format report.Format
		if rbReportDir != "" {
			f, err := reportFormat(rbReportFormat, "", c)
			if err != nil {
				return err
			}
			format = f
			if err := utils.EnsureDir(rbReportDir); err != nil {
				return err
			}
		}
		if rbOutDir != "" {
			if err := utils.EnsureDir(rbOutDir); err != nil {
				return err
			}
		}
		seed := resolveSeed(cmd, rbSeed, c)

		var bar *pb.ProgressBar
		if !rbQuiet {
			bar = pb.New(len(files))
			bar.Output = cmd.ErrOrStderr()
			bar.ShowTimeLeft = false
			bar.Start()
		}
		var summaries []string
		for _, path := range files {
			if bar != nil {
				bar.Prefix(filepath.Base(path) + " ")
			}
			ds, err := loadInput(path, rbDelimiter, c)
			if err != nil {
				finish(bar)
				return err
			}
			sel := selection{
				column:       rbColumn,
				fileNames:    rbFileNames,
				values:       rbValues,
				allFileNames: rbAllFileNames,
				allValues:    rbAllValues,
				quota:        rbQuota,
				seed:         seed,
				dryRun:       rbDryRun,
			}
			rep, retained, err := runRemoval(cmd, ds, sel, c)
			if err != nil {
				finish(bar)
				return fmt.Errorf("%s: %w", path, err)
			}
			if retained != nil {
				// Distinct inputs can share a base name when gathered into one --out-dir.
				out := defaultOutputPath(path, rbOutDir, c.OutputSuffix)
				if rbOutDir != "" {
					out = utils.UniquePath(out)
				}
				if sameFile(path, out) {
					finish(bar)
					return fmt.Errorf("refusing to overwrite the input file %s", path)
				}
				if err := retained.WriteFile(out); err != nil {
					finish(bar)
					return fmt.Errorf("write output: %w", err)
				}
				debugf(cmd, "wrote %s", out)
			}
			if rbReportDir != "" {
				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				rp := utils.UniquePath(filepath.Join(rbReportDir, base+".report."+reportExt(format)))
				if err := rep.Write(rp, format); err != nil {
					finish(bar)
					return err
				}
			}
			summaries = append(summaries, fmt.Sprintf("%s: removed %d, kept %d", filepath.Base(path), rep.Removed(), rep.RowsAfter))
			if bar != nil {
				bar.Increment()
			}
		}
		finish(bar)
		if !rbQuiet {
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", s)
			}
		}
		return nil
	},
}

func finish(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func reportExt(format report.Format) string {
	switch format {
	case report.FormatJSON:
		return "json"
	case report.FormatYAML:
		return "yaml"
	default:
		return "txt"
	}
}

func init() {
	rootCmd.AddCommand(removeBatchCmd)
	removeBatchCmd.Flags().StringVarP(&rbColumn, "column", "c", "", "second column to balance over")
	removeBatchCmd.Flags().StringArrayVarP(&rbFileNames, "file-names", "f", nil, "selected 'file name' values, in priority order (repeatable)")
	removeBatchCmd.Flags().StringArrayVarP(&rbValues, "values", "v", nil, "selected values of --column, in priority order (repeatable)")
	removeBatchCmd.Flags().BoolVar(&rbAllFileNames, "all-file-names", false, "select every distinct 'file name' value of each file")
	removeBatchCmd.Flags().BoolVar(&rbAllValues, "all-values", false, "select every distinct value of --column of each file")
	removeBatchCmd.Flags().IntVarP(&rbQuota, "quota", "n", 0, "rows to remove from each file")
	removeBatchCmd.Flags().Int64Var(&rbSeed, "seed", 1, "sampling seed (overrides config)")
	removeBatchCmd.Flags().StringVar(&rbOutDir, "out-dir", "", "directory for updated CSVs (default: next to each input)")
	removeBatchCmd.Flags().StringVar(&rbReportDir, "report-dir", "", "directory to write one report per file")
	removeBatchCmd.Flags().StringVar(&rbReportFormat, "report-format", "", "report format: text|json|yaml (default from config)")
	removeBatchCmd.Flags().StringVar(&rbDelimiter, "delimiter", "", "input delimiter: ',' | ';' | 'tab' | 'pipe'")
	removeBatchCmd.Flags().BoolVar(&rbDryRun, "dry-run", false, "compute plans without writing CSVs")
	removeBatchCmd.Flags().BoolVar(&rbQuiet, "quiet", false, "suppress progress and non-essential output")
}
