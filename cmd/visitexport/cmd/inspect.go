package cmd

import (
	"errors"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/visitexport/internal/export"
	"github.com/dbsmedya/visitexport/internal/response"
	"github.com/dbsmedya/visitexport/internal/source"
	"github.com/dbsmedya/visitexport/internal/tree"
)

var inspectID string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show one visit with its answers as a tree",
	Long: `Inspect loads a single visit and prints its metadata followed by the
answer set rendered as an indented tree. Question keys are shown as
readable labels, photos as image references, and nested groups indented.

Example:
  visitexport inspect --config visitexport.yaml --id 1042`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectID, "id", "",
		"Visit id to show (required)")
	inspectCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectID == "" {
		return fmt.Errorf("--id is required")
	}

	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := commandContext(cmd, sess.log)
	defer cancel()

	src, err := sess.openSource(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	rec, err := src.Get(ctx, inspectID)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return fmt.Errorf("visit %s not found", inspectID)
		}
		return err
	}

	fixed, err := export.FixedColumns(export.FixedOptions{
		DateFormat: sess.cfg.Output.DateFormat,
		TimeFormat: sess.cfg.Output.TimeFormat,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Visit %s ===\n", rec.ID)

	width := 0
	for _, col := range fixed {
		if w := runewidth.StringWidth(col.Label + ":"); w > width {
			width = w
		}
	}
	for _, col := range fixed {
		value, err := col.Value(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", runewidth.FillRight(col.Label+":", width), value)
	}

	fmt.Fprintf(out, "\n--- Answers ---\n")
	node := response.NewRenderer(sess.cfg.Render.MaxDepth).Render(rec.Answers, 0)
	printer := tree.NewPrinter(out, tree.Options{NoColor: !colorEnabled(out)})
	return printer.Print(node)
}
