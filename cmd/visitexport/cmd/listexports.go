package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/visitexport/internal/config"
	"github.com/dbsmedya/visitexport/internal/database"
	"github.com/dbsmedya/visitexport/internal/lock"
)

var listExportsCmd = &cobra.Command{
	Use:   "list-exports",
	Short: "List all exports defined in configuration",
	Long: `List-exports displays all named exports defined in the configuration
file along with their entity, filter and file name style. With the mysql
driver it also reports whether another instance is running each export.

Example:
  visitexport list-exports --config visitexport.yaml`,
	RunE: runListExports,
}

func init() {
	rootCmd.AddCommand(listExportsCmd)
}

func runListExports(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := cfg.ListExports()
	if len(names) == 0 {
		cmd.Printf("No exports defined in %s\n", configFile)
		return nil
	}

	// Sort export names for consistent output
	sort.Strings(names)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var db *database.Manager
	if cfg.Source.Driver == config.DriverMySQL {
		db, err = connectDatabase(ctx, &cfg.Source)
		if err != nil {
			cmd.PrintErrf("Running status unavailable: %v\n", err)
		} else {
			defer db.Close()
		}
	}

	cmd.Printf("Exports defined in %s:\n\n", configFile)

	for i, name := range names {
		exp, err := cfg.GetExport(name)
		if err != nil {
			return fmt.Errorf("failed to get export %q: %w", name, err)
		}

		cmd.Printf("%d. %s\n", i+1, name)
		cmd.Printf("   Entity:        %s\n", exp.Entity)
		if exp.Where != "" {
			cmd.Printf("   WHERE:         %s\n", exp.Where)
		} else {
			cmd.Printf("   WHERE:         (none)\n")
		}
		cmd.Printf("   File Style:    %s\n", cfg.GetExportStyle(name))
		if db != nil {
			cmd.Printf("   Running:       %s\n", runningStatus(ctx, db, name))
		}

		if i < len(names)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d export(s)\n", len(names))
	return nil
}

// runningStatus asks MySQL whether the export's advisory lock is taken.
func runningStatus(ctx context.Context, db *database.Manager, name string) string {
	running, err := lock.IsExportRunning(ctx, db.DB, name)
	switch {
	case err != nil:
		return fmt.Sprintf("unknown (%v)", err)
	case running:
		return "yes"
	default:
		return "no"
	}
}
