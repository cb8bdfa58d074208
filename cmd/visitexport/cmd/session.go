package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/visitexport/internal/config"
	"github.com/dbsmedya/visitexport/internal/database"
	"github.com/dbsmedya/visitexport/internal/lock"
	"github.com/dbsmedya/visitexport/internal/logger"
	"github.com/dbsmedya/visitexport/internal/source"
)

// connectDatabase opens the mysql source. Tests replace it with a mock.
var connectDatabase = func(ctx context.Context, cfg *config.SourceConfig) (*database.Manager, error) {
	mgr := database.NewManager(cfg)
	if err := mgr.Connect(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}

// session bundles what every command needs: validated config, logger and,
// once opened, the database connection.
type session struct {
	configFile string
	cfg        *config.Config
	log        *logger.Logger
	fs         afero.Fs
	db         *database.Manager
}

// newSession loads the config file, applies CLI overrides and validates the
// result.
func newSession() (*session, error) {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.OutputDir, overrides.MaxDepth)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &session{
		configFile: configFile,
		cfg:        cfg,
		log:        log,
		fs:         afero.NewOsFs(),
	}, nil
}

// openSource returns the configured record source. where is only honoured
// by the mysql driver.
func (s *session) openSource(ctx context.Context, where string) (source.Source, error) {
	switch s.cfg.Source.Driver {
	case config.DriverFile:
		if strings.TrimSpace(where) != "" {
			return nil, fmt.Errorf("where filters need the mysql driver")
		}
		return source.NewFileSource(s.fs, s.cfg.Source.Path, s.cfg.Schema.AnswersColumn, s.log), nil
	default:
		if s.db == nil {
			mgr, err := connectDatabase(ctx, &s.cfg.Source)
			if err != nil {
				return nil, err
			}
			s.db = mgr
		}
		src, err := source.NewSQLSource(s.db.DB, s.cfg.Schema, where, s.log)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// locker returns the lock guarding exportName: a MySQL advisory lock when a
// database is open, otherwise a lock file in the output directory.
func (s *session) locker(exportName string) (lock.Locker, error) {
	if s.db != nil && s.db.DB != nil {
		return lock.NewExportLock(s.db.DB, exportName), nil
	}
	if err := s.fs.MkdirAll(s.cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", s.cfg.Output.Dir, err)
	}
	return lock.NewFileLock(s.cfg.Output.Dir, exportName), nil
}

// Close releases the database connection and flushes the logger.
func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warnf("Failed to close database: %v", err)
		}
	}
	_ = s.log.Sync()
}

// commandContext returns a context cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command, log *logger.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return database.SetupSignalHandler(parent, func(sig os.Signal) {
		log.Warnf("Received %s - stopping", sig)
	})
}

// colorEnabled reports whether tree output to w should be styled.
func colorEnabled(w io.Writer) bool {
	if GetCLIOverrides().NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
