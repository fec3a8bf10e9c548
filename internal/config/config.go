package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".removal-app"

// Global configuration structure.
type Global struct {
	// Seed drives row sampling; the same seed on the same input removes the same rows.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// DimensionColumn is the fixed first dimension ("file name").
	DimensionColumn string `mapstructure:"dimension_column" yaml:"dimension_column"`
	// Delimiter for input files: "" (auto), ",", ";", "tab".
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// OutputSuffix is inserted before the extension of the default output path.
	OutputSuffix string `mapstructure:"output_suffix" yaml:"output_suffix"`
	// ReportFormat is text, json or yaml.
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	// TopValues caps the per-column value list printed by inspect.
	TopValues int `mapstructure:"top_values" yaml:"top_values"`
}

// DefaultPath returns ~/.removal-app/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.removal-app/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied on top
// by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("REMOVAL")
	v.AutomaticEnv()

	v.SetDefault("seed", 1)
	v.SetDefault("dimension_column", "file name")
	v.SetDefault("delimiter", "")
	v.SetDefault("output_suffix", ".updated")
	v.SetDefault("report_format", "text")
	v.SetDefault("top_values", 8)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DimensionColumn == "" {
		c.DimensionColumn = "file name"
	}
	return &c, nil
}
