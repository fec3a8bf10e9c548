package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/CDR-Shepard/removal-app/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "removal",
	Short: "Remove a quota of CSV rows evenly across file name x column combinations",
	Long: `removal loads a CSV file, removes a target number of rows spread as evenly as
possible across every combination of selected "file name" values and selected
values of a second column, and writes the remaining rows back out as CSV
together with a per-combination removal report.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.removal-app/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

// settings loads the configuration on first use. A --config file that cannot
// be read fails the command.
func settings() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return cfg, nil
}

// debugf prints a diagnostic line to stderr when --debug is set.
func debugf(cmd *cobra.Command, format string, args ...any) {
	if !debug {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[debug] "+format+"\n", args...)
}
