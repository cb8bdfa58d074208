package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	outputDir string
	maxDepth  int
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "visitexport",
	Short: "Field visit response renderer & CSV exporter",
	Long: `Reads shop visit records with free-form questionnaire answers from MySQL
or a JSON dump, renders answer sets as readable trees and exports them as CSV.

Features:
  - Column discovery across heterogeneous answer sets, in first-seen order
  - Human-readable labels for camelCase and snake_case question keys
  - Image and gallery detection for photo answers
  - Quoted RFC 4180 CSV with one row per visit
  - Per-export locking so two runs never write the same export`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "visitexport.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Output overrides
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "",
		"Override the directory CSV files are written to")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0,
		"Override the nesting depth rendered before values are cut off")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored tree output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	OutputDir string
	MaxDepth  int
	NoColor   bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		OutputDir: outputDir,
		MaxDepth:  maxDepth,
		NoColor:   noColor,
	}
}
