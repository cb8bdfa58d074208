package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/visitexport/internal/config"
	"github.com/dbsmedya/visitexport/internal/logger"
	"github.com/dbsmedya/visitexport/internal/sqlutil"
	"github.com/dbsmedya/visitexport/internal/types"
)

// Fixed column names of the visits schema. Only table names, the timestamp
// column and the answers column are configurable.
const (
	columnID     = "id"
	columnUserID = "user_id"
	columnShopID = "shop_id"
	columnName   = "name"
	columnNotes  = "notes"
	columnStatus = "status"
)

// SQLSource reads visits from MySQL, joined with their user and shop names.
// It only issues SELECT statements.
type SQLSource struct {
	db     *sql.DB
	schema config.SchemaConfig
	where  string
	logger *logger.Logger
}

var _ Source = (*SQLSource)(nil)

// NewSQLSource creates a source over db. where is an optional SQL condition
// on the visits table, available as alias v.
func NewSQLSource(db *sql.DB, schema config.SchemaConfig, where string, log *logger.Logger) (*SQLSource, error) {
	if err := sqlutil.ValidateIdentifiers(
		schema.VisitsTable, schema.UsersTable, schema.ShopsTable,
		schema.TimestampColumn, schema.AnswersColumn,
	); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SQLSource{
		db:     db,
		schema: schema,
		where:  strings.TrimSpace(where),
		logger: log.WithSource("mysql:" + schema.VisitsTable),
	}, nil
}

// Query returns the SELECT statement used by Load.
func (s *SQLSource) Query() string {
	return s.buildQuery(s.where, true)
}

func (s *SQLSource) buildQuery(where string, ordered bool) string {
	col := sqlutil.QualifiedName
	q := sqlutil.QuoteIdentifier
	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s, %s, %s, %s, %s, %s, %s",
		col("v", columnID), col("v", s.schema.TimestampColumn), col("u", columnName), col("sh", columnName),
		col("v", columnNotes), col("v", columnStatus), col("v", s.schema.AnswersColumn))
	fmt.Fprintf(&b, " FROM %s v", q(s.schema.VisitsTable))
	fmt.Fprintf(&b, " LEFT JOIN %s u ON %s = %s", q(s.schema.UsersTable), col("u", columnID), col("v", columnUserID))
	fmt.Fprintf(&b, " LEFT JOIN %s sh ON %s = %s", q(s.schema.ShopsTable), col("sh", columnID), col("v", columnShopID))
	if where != "" {
		fmt.Fprintf(&b, " WHERE %s", where)
	}
	if ordered {
		fmt.Fprintf(&b, " ORDER BY %s, %s", col("v", s.schema.TimestampColumn), col("v", columnID))
	}
	return b.String()
}

// Load reads all matching visits ordered by timestamp, then id.
func (s *SQLSource) Load(ctx context.Context) ([]*types.Record, types.RecordStats, error) {
	var stats types.RecordStats

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, stats, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var records []*types.Record
	for rows.Next() {
		rec, malformed, err := s.scan(rows)
		if err != nil {
			return nil, stats, err
		}
		countRecord(&stats, rec, malformed)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read visits: %w", err)
	}

	s.logger.Debugf("Loaded %d record(s) in %v, %d with answers, %d malformed",
		stats.Records, time.Since(start), stats.WithAnswers, stats.MalformedCount)
	return records, stats, nil
}

// Check runs the export query with LIMIT 0, proving that the tables,
// columns and filter are valid without reading any rows.
func (s *SQLSource) Check(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, s.Query()+" LIMIT 0")
	if err != nil {
		return fmt.Errorf("visits query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read visits columns: %w", err)
	}
	if len(cols) != 7 {
		return fmt.Errorf("visits query returned %d columns, expected 7", len(cols))
	}
	return rows.Err()
}

// Get reads one visit by id. The export filter does not apply.
func (s *SQLSource) Get(ctx context.Context, id string) (*types.Record, error) {
	query := s.buildQuery(sqlutil.QualifiedName("v", columnID)+" = ?", false)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read visit %s: %w", id, err)
		}
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	rec, _, err := s.scan(rows)
	return rec, err
}

func (s *SQLSource) scan(rows *sql.Rows) (*types.Record, bool, error) {
	var (
		id, user, shop, notes, status sql.NullString
		ts                            sql.NullTime
		answers                       []byte
	)
	if err := rows.Scan(&id, &ts, &user, &shop, &notes, &status, &answers); err != nil {
		return nil, false, fmt.Errorf("failed to scan visit row: %w", err)
	}

	rec := &types.Record{
		ID:     id.String,
		User:   user.String,
		Shop:   shop.String,
		Notes:  notes.String,
		Status: status.String,
	}
	if ts.Valid {
		rec.Timestamp = ts.Time.UTC().Format(time.RFC3339)
	}

	decoded, err := decodeAnswerBytes(answers)
	if err != nil {
		s.logger.WithRecord(rec.ID).Warnf("Ignoring malformed answers: %v", err)
		return rec, true, nil
	}
	rec.Answers = decoded
	return rec, false, nil
}
