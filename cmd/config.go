package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/CDR-Shepard/removal-app/internal/config"
	"github.com/CDR-Shepard/removal-app/internal/report"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "seed: %d\n", c.Seed)
		fmt.Fprintf(out, "dimension_column: %s\n", c.DimensionColumn)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %s\n", c.Delimiter)
		}
		fmt.Fprintf(out, "output_suffix: %s\n", c.OutputSuffix)
		fmt.Fprintf(out, "report_format: %s\n", c.ReportFormat)
		fmt.Fprintf(out, "top_values: %d\n", c.TopValues)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			return err
		}
		switch key {
		case "seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for seed: %w", err)
			}
			c.Seed = i
		case "dimension_column":
			if strings.TrimSpace(val) == "" {
				return fmt.Errorf("dimension_column cannot be empty")
			}
			c.DimensionColumn = val
		case "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			c.Delimiter = val
		case "output_suffix":
			c.OutputSuffix = val
		case "report_format":
			f, err := report.ParseFormat(val)
			if err != nil {
				return err
			}
			c.ReportFormat = string(f)
		case "top_values":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for top_values: %v", val)
			}
			c.TopValues = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
