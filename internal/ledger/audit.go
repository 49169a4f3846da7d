package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// AuditStore persists every fill to DuckDB so a run leaves a queryable audit
// trail. It is append-only; the ledger remains the source of truth for state.
type AuditStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewAuditStore opens an audit store. Use ":memory:" for a non-persistent
// store in tests.
func NewAuditStore(path string, l *logger.Logger) (*AuditStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to open audit database", err)
	}

	return &AuditStore{
		db:     db,
		logger: l,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the fills table.
func (s *AuditStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			fill_id TEXT PRIMARY KEY,
			decision_id TEXT,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			observed_price DOUBLE,
			fee DOUBLE,
			executed_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to create fills table", err)
	}

	return nil
}

// Record appends one fill to the audit trail.
func (s *AuditStore) Record(fill types.Fill) error {
	insertQuery := s.sq.
		Insert("fills").
		Columns(
			"fill_id", "decision_id", "symbol", "side", "quantity",
			"price", "observed_price", "fee", "executed_at",
		).
		Values(
			fill.ID, fill.DecisionID, fill.Symbol, fill.Side, fill.Quantity,
			fill.Price, fill.ObservedPrice, fill.Fee, fill.Time,
		).
		RunWith(s.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to record fill", err)
	}

	return nil
}

// Fills returns all recorded fills in execution order.
func (s *AuditStore) Fills() ([]types.Fill, error) {
	selectQuery := s.sq.
		Select(
			"fill_id", "decision_id", "symbol", "side", "quantity",
			"price", "observed_price", "fee", "executed_at",
		).
		From("fills").
		OrderBy("executed_at ASC, fill_id ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to query fills", err)
	}
	defer rows.Close()

	var fills []types.Fill

	for rows.Next() {
		var fill types.Fill
		if err := rows.Scan(
			&fill.ID, &fill.DecisionID, &fill.Symbol, &fill.Side, &fill.Quantity,
			&fill.Price, &fill.ObservedPrice, &fill.Fee, &fill.Time,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to scan fill", err)
		}

		fills = append(fills, fill)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to iterate fills", err)
	}

	return fills, nil
}

// CountFills returns the number of recorded fills.
func (s *AuditStore) CountFills() (int, error) {
	query := s.sq.
		Select("COUNT(*)").
		From("fills").
		RunWith(s.db)

	var count int
	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to count fills", err)
	}

	return count, nil
}

// TotalFees returns the sum of fees across all recorded fills for a symbol.
func (s *AuditStore) TotalFees(symbol string) (float64, error) {
	query := s.sq.
		Select("COALESCE(SUM(fee), 0)").
		From("fills").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db)

	var total float64
	if err := query.QueryRow().Scan(&total); err != nil {
		return 0, errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to sum fees", err)
	}

	return total, nil
}

// Export writes the audit trail to a Parquet file in the given directory.
func (s *AuditStore) Export(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to create export directory", err)
	}

	// Raw SQL: squirrel has no COPY support.
	fillsPath := filepath.Join(dir, "fills.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY fills TO '%s' (FORMAT PARQUET)`, fillsPath)); err != nil {
		return errors.Wrap(errors.ErrCodeAuditStoreFailed, "failed to export fills to parquet", err)
	}

	s.logger.Info("exported audit trail",
		zap.String("fills", fillsPath),
	)

	return nil
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
