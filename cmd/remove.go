package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	rmColumn       string
	rmFileNames    []string
	rmValues       []string
	rmAllFileNames bool
	rmAllValues    bool
	rmQuota        int
	rmSeed         int64
	rmOutput       string
	rmReportPath   string
	rmReportFormat string
	rmDelimiter    string
	rmDryRun       bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <file>",
	Short: "Remove --quota rows from a CSV evenly across file name x column combinations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := settings()
		if err != nil {
			return err
		}
		ds, err := loadInput(path, rmDelimiter, c)
		if err != nil {
			return err
		}
		sel := selection{
			column:       rmColumn,
			fileNames:    rmFileNames,
			values:       rmValues,
			allFileNames: rmAllFileNames,
			allValues:    rmAllValues,
			quota:        rmQuota,
			seed:         resolveSeed(cmd, rmSeed, c),
			dryRun:       rmDryRun,
		}
		rep, retained, err := runRemoval(cmd, ds, sel, c)
		if err != nil {
			return err
		}

		// Keep stdout clean for the CSV when it is the output target.
		status := cmd.OutOrStdout()
		if rmOutput == "-" {
			status = cmd.ErrOrStderr()
		}
		if retained != nil {
			if err := writeRetained(cmd.OutOrStdout(), retained, path, rmOutput, c.OutputSuffix, status); err != nil {
				return err
			}
		}
		printReport(status, rep)

		if rmReportPath != "" {
			f, err := reportFormat(rmReportFormat, rmReportPath, c)
			if err != nil {
				return err
			}
			if err := rep.Write(rmReportPath, f); err != nil {
				return err
			}
			fmt.Fprintf(status, "✓ Wrote report to %s\n", rmReportPath)
		}
		return nil
	},
}

func writeRetained(stdout io.Writer, ds *dataset.Dataset, input, output, suffix string, status io.Writer) error {
	if output == "-" {
		return ds.WriteCSV(stdout)
	}
	if output == "" {
		output = defaultOutputPath(input, "", suffix)
	}
	if sameFile(input, output) {
		return fmt.Errorf("refusing to overwrite the input file %s", input)
	}
	if err := ds.WriteFile(output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(status, "✓ Wrote updated CSV to %s\n", output)
	return nil
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&rmColumn, "column", "c", "", "second column to balance over (any column other than the dimension column)")
	removeCmd.Flags().StringArrayVarP(&rmFileNames, "file-names", "f", nil, "selected 'file name' values, in priority order (repeatable)")
	removeCmd.Flags().StringArrayVarP(&rmValues, "values", "v", nil, "selected values of --column, in priority order (repeatable)")
	removeCmd.Flags().BoolVar(&rmAllFileNames, "all-file-names", false, "select every distinct 'file name' value")
	removeCmd.Flags().BoolVar(&rmAllValues, "all-values", false, "select every distinct value of --column")
	removeCmd.Flags().IntVarP(&rmQuota, "quota", "n", 0, "total number of rows to remove (0..rows)")
	removeCmd.Flags().Int64Var(&rmSeed, "seed", 1, "sampling seed (overrides config)")
	removeCmd.Flags().StringVarP(&rmOutput, "output", "o", "", "output CSV path ('-' for stdout; default <input><suffix>.csv)")
	removeCmd.Flags().StringVar(&rmReportPath, "report", "", "optional path to write the removal report")
	removeCmd.Flags().StringVar(&rmReportFormat, "report-format", "", "report format: text|json|yaml (default from extension or config)")
	removeCmd.Flags().StringVar(&rmDelimiter, "delimiter", "", "input delimiter: ',' | ';' | 'tab' | 'pipe'")
	removeCmd.Flags().BoolVar(&rmDryRun, "dry-run", false, "print the planned counts without removing rows")
}
