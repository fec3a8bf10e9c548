package cmd

import (
	"fmt"
	"os"

	"github.com/CDR-Shepard/removal-app/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	inColumn     string
	inFileNames  []string
	inValues     []string
	inDelimiter  string
	inSampleRows int
	inTopValues  int
	inOutputPath string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show columns and selectable values of a CSV, optionally with combination counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		ds, err := loadInput(args[0], inDelimiter, c)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.DimensionColumn = c.DimensionColumn
		opt.SampleRows = inSampleRows
		if c.TopValues > 0 {
			opt.TopValues = c.TopValues
		}
		if inTopValues > 0 {
			opt.TopValues = inTopValues
		}
		rep, err := analysis.Profile(ds, opt)
		if err != nil {
			return err
		}
		if inColumn != "" {
			if inColumn == c.DimensionColumn {
				return fmt.Errorf("--column must be a column other than %q", c.DimensionColumn)
			}
			ct, err := analysis.NewCrossTab(ds, c.DimensionColumn, inColumn, inFileNames, inValues)
			if err != nil {
				return err
			}
			rep.Cross = ct
		}
		md := rep.Markdown()
		if inOutputPath != "" {
			if err := os.WriteFile(inOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote inspection to %s\n", inOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inColumn, "column", "c", "", "second column; prints counts per (file name, value) combination")
	inspectCmd.Flags().StringArrayVarP(&inFileNames, "file-names", "f", nil, "restrict the combination table to these 'file name' values")
	inspectCmd.Flags().StringArrayVarP(&inValues, "values", "v", nil, "restrict the combination table to these --column values")
	inspectCmd.Flags().StringVar(&inDelimiter, "delimiter", "", "input delimiter: ',' | ';' | 'tab' | 'pipe'")
	inspectCmd.Flags().IntVar(&inSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().IntVar(&inTopValues, "top", 0, "most frequent values listed per column (overrides config)")
	inspectCmd.Flags().StringVarP(&inOutputPath, "output", "o", "", "optional path to write the inspection (Markdown)")
}
