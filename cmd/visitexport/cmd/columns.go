package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/visitexport/internal/export"
)

var (
	columnsExport string
	columnsEntity string
	columnsWhere  string
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show the CSV columns an export would produce",
	Long: `Columns loads the records of an export and prints the fixed metadata
columns followed by the answer columns discovered across all answer sets,
in the order they would appear in the CSV header. Nothing is written.

Example:
  visitexport columns --config visitexport.yaml --export corner_shop`,
	RunE: runColumns,
}

func init() {
	columnsCmd.Flags().StringVarP(&columnsExport, "export", "e", "",
		"Export name from configuration file")
	columnsCmd.Flags().StringVar(&columnsEntity, "entity", "",
		"Entity name for an ad-hoc export")
	columnsCmd.Flags().StringVar(&columnsWhere, "where", "",
		"SQL filter on the visits table (alias v) for an ad-hoc export")

	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	target, err := resolveExport(sess.cfg, columnsExport, columnsEntity, columnsWhere, "")
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, sess.log)
	defer cancel()

	src, err := sess.openSource(ctx, target.Config.Where)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	records, stats, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	fixed, err := export.FixedColumns(export.FixedOptions{
		DateFormat: sess.cfg.Output.DateFormat,
		TimeFormat: sess.cfg.Output.TimeFormat,
	})
	if err != nil {
		return err
	}
	dynamic := export.DiscoverColumns(records)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Columns for %s (%d record(s), %d with answers):\n\n", target.Name, stats.Records, stats.WithAnswers)

	fmt.Fprintf(out, "Fixed:\n")
	for i, col := range fixed {
		fmt.Fprintf(out, "%3d. %s\n", i+1, col.Label)
	}

	fmt.Fprintf(out, "\nAnswers:\n")
	if len(dynamic) == 0 {
		fmt.Fprintf(out, "     (none)\n")
	}
	for i, col := range dynamic {
		fmt.Fprintf(out, "%3d. %s (%s)\n", len(fixed)+i+1, col.Label, col.Key)
	}

	fmt.Fprintf(out, "\nTotal: %d column(s)\n", len(fixed)+len(dynamic))
	return nil
}
