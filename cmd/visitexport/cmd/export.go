package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/visitexport/internal/config"
	"github.com/dbsmedya/visitexport/internal/export"
	"github.com/dbsmedya/visitexport/internal/lock"
)

var (
	exportName   string
	exportEntity string
	exportWhere  string
	exportStyle  string
	exportForce  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export visits and their answers to CSV",
	Long: `Export loads visit records, discovers one column per distinct question
across all answer sets, and writes a quoted CSV file with a row per visit.

The file is named after the entity: <entity>_<YYYY-MM-DD>.csv, or
<entity>_visits.csv with the "visits" filename style. It is written to a
temporary file first, so a failed export never leaves a partial file.

Use either a named export from the configuration file or an ad-hoc entity.

Example:
  visitexport export --config visitexport.yaml --export corner_shop
  visitexport export --entity "Corner Shop" --where "v.shop_id = 42"`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportName, "export", "e", "",
		"Export name from configuration file")
	exportCmd.Flags().StringVar(&exportEntity, "entity", "",
		"Entity name for an ad-hoc export (used for the file name)")
	exportCmd.Flags().StringVar(&exportWhere, "where", "",
		"SQL filter on the visits table (alias v) for an ad-hoc export")
	exportCmd.Flags().StringVar(&exportStyle, "filename-style", "",
		"Override the file name style (dated, visits)")
	exportCmd.Flags().BoolVar(&exportForce, "force", false,
		"Skip the export lock (use with caution)")

	rootCmd.AddCommand(exportCmd)
}

// exportTarget is a resolved export: the lock name plus its definition.
type exportTarget struct {
	Name   string
	Config config.ExportConfig
	Style  string
}

// resolveExport picks the export definition from --export or from the
// ad-hoc --entity/--where flags.
func resolveExport(cfg *config.Config, name, entity, where, style string) (*exportTarget, error) {
	var target *exportTarget

	switch {
	case name != "" && (entity != "" || where != ""):
		return nil, fmt.Errorf("--export cannot be combined with --entity or --where")
	case name != "":
		exp, err := cfg.GetExport(name)
		if err != nil {
			return nil, err
		}
		target = &exportTarget{Name: name, Config: *exp, Style: cfg.GetExportStyle(name)}
	case strings.TrimSpace(entity) != "":
		target = &exportTarget{
			Name:   entity,
			Config: config.ExportConfig{Entity: entity, Where: where},
			Style:  cfg.Output.FilenameStyle,
		}
	default:
		return nil, fmt.Errorf("either --export or --entity is required")
	}

	if style != "" {
		target.Style = style
	}
	if target.Style != string(export.StyleDated) && target.Style != string(export.StyleVisits) {
		return nil, fmt.Errorf("unknown filename style %q (use dated or visits)", target.Style)
	}
	return target, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	target, err := resolveExport(sess.cfg, exportName, exportEntity, exportWhere, exportStyle)
	if err != nil {
		return err
	}
	log := sess.log.WithExport(target.Name)

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	src, err := sess.openSource(ctx, target.Config.Where)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	fixed, err := export.FixedColumns(export.FixedOptions{
		DateFormat: sess.cfg.Output.DateFormat,
		TimeFormat: sess.cfg.Output.TimeFormat,
	})
	if err != nil {
		return err
	}

	sink := export.NewFileSink(sess.fs, sess.cfg.Output.Dir)
	exporter, err := export.NewExporter(sink, fixed, nil, log)
	if err != nil {
		return err
	}

	var result *export.Result
	run := func() error {
		records, stats, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}
		if stats.MalformedCount > 0 {
			log.Warnf("%d record(s) had unreadable answers and were exported without them", stats.MalformedCount)
		}

		result, err = exporter.Export(ctx, export.Request{
			Entity:  target.Config.Entity,
			Style:   export.FilenameStyle(target.Style),
			Records: records,
		})
		if err != nil {
			if export.IsSerializationFailure(err) {
				cmd.PrintErrf("Export could not be completed: %v\nEarlier exports were not modified.\n", err)
			}
			return fmt.Errorf("export failed: %w", err)
		}
		return nil
	}

	if exportForce {
		log.Warnw("Skipping export lock (--force flag used)")
		err = run()
	} else {
		locker, lerr := sess.locker(target.Name)
		if lerr != nil {
			return lerr
		}
		log.Debugw("Taking export lock", "lock", locker.Name())
		err = lock.WithLock(ctx, locker, run)
		if errors.Is(err, lock.ErrLockTimeout) {
			return fmt.Errorf("export '%s' is already running on another instance (use --force to override)", target.Name)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Export Complete ===\n")
	fmt.Fprintf(out, "Export: %s\n", target.Name)
	fmt.Fprintf(out, "File: %s\n", sink.Path(result.Filename))
	fmt.Fprintf(out, "Rows: %d\n", result.Rows)
	fmt.Fprintf(out, "Columns: %d\n", result.Columns)
	fmt.Fprintf(out, "Bytes: %d\n", result.Bytes)
	fmt.Fprintf(out, "Duration: %s\n", result.Duration)
	return nil
}
