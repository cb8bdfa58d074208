// Package database provides MySQL connection management for the visits source.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jonboulle/clockwork"

	"github.com/dbsmedya/visitexport/internal/config"
)

const (
	defaultRetries = 3
	defaultBackoff = time.Second
)

// Manager owns the read-only connection to the visits database.
type Manager struct {
	DB      *sql.DB
	config  *config.SourceConfig
	clock   clockwork.Clock
	retries int
	backoff time.Duration
}

// NewManager creates a new database manager for a source configuration.
func NewManager(cfg *config.SourceConfig) *Manager {
	return &Manager{
		config:  cfg,
		clock:   clockwork.NewRealClock(),
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
}

// NewManagerWithDB wraps an already open handle, e.g. one created by sqlmock.
func NewManagerWithDB(db *sql.DB) *Manager {
	return &Manager{DB: db, clock: clockwork.NewRealClock(), retries: defaultRetries, backoff: defaultBackoff}
}

// WithClock sets the clock used to wait between connection attempts.
func (m *Manager) WithClock(clock clockwork.Clock) *Manager {
	m.clock = clock
	return m
}

// Connect opens and verifies the source connection, retrying with
// exponential backoff.
func (m *Manager) Connect(ctx context.Context) error {
	if m.config == nil {
		return fmt.Errorf("no source configuration")
	}
	if m.config.Driver != "" && m.config.Driver != config.DriverMySQL {
		return fmt.Errorf("source driver %q does not use a database connection", m.config.Driver)
	}

	db, err := m.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	m.DB = db
	return nil
}

func (m *Manager) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var err error
	backoff := m.backoff

	for i := 0; i < m.retries; i++ {
		var db *sql.DB
		db, err = m.open()
		if err == nil {
			pingErr := db.PingContext(ctx)
			if pingErr == nil {
				return db, nil
			}
			db.Close()
			err = pingErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if i < m.retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-m.clock.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", m.retries, err)
}

func (m *Manager) open() (*sql.DB, error) {
	db, err := sql.Open("mysql", BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from a source configuration.
// Timestamps are parsed into time.Time and read in UTC.
func BuildDSN(cfg *config.SourceConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("loc", "UTC")
	switch cfg.TLS {
	case "disable":
		params.Set("tls", "false")
	case "required":
		params.Set("tls", "true")
	default:
		params.Set("tls", "preferred")
	}

	return dsn + "?" + params.Encode()
}

// Close closes the connection if it is open.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("source close: %w", err)
	}
	m.DB = nil
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("source database is not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("source ping failed: %w", err)
	}
	return nil
}
