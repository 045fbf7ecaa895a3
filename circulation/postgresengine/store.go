package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	tableTitles       = "titles"
	tableCopies       = "copies"
	tableLoans        = "loans"
	tableReservations = "reservations"
	tableFines        = "fines"

	dialectPostgres = "postgres"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgQueryFailed      = "database query execution failed"
	logMsgExecFailed       = "database execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgTxBeginFailed    = "failed to begin transaction"
	logMsgTxCommitFailed   = "failed to commit transaction"
	logMsgTxRollbackFailed = "failed to roll back transaction"
	logMsgSQLExecuted      = "executed sql"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"

	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeUniqueViolation      = "23505"
	pgCodeCheckViolation       = "23514"
)

// ErrNilDatabaseConnection is returned when a nil connection is supplied.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

var dialect = goqu.Dialect(dialectPostgres)

// Store is the PostgreSQL circulation ledger. It implements
// circulation.LedgerStore over a database adapter and supports customizable
// logging and table name prefixing.
type Store struct {
	db          adapters.DBAdapter
	tablePrefix string
	logger      circulation.Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithTablePrefix prefixes every circulation table name, so several
// deployments can share one database.
func WithTablePrefix(prefix string) Option {
	return func(s *Store) error {
		s.tablePrefix = prefix
		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operation outcomes (production-safe)
// Warn level: non-critical issues like rows cleanup failures
// Error level: failures that cause operation errors.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:     db,
		logger: circulation.NoopLogger{},
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// WithinTx runs fn in one database transaction, committing on success and
// rolling back on error. Serialization failures and constraint races come
// back as circulation.ErrSerializationConflict so the shell retry loop can
// re-run the whole operation.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx circulation.Ledger) error) error {
	dbTx, err := s.db.BeginTx(ctx)
	if err != nil {
		s.logger.Error(logMsgTxBeginFailed, logAttrError, err.Error())
		return s.mapError(err)
	}

	sess := &session{store: s, tx: dbTx}

	if err := fn(ctx, sess); err != nil {
		if rbErr := dbTx.Rollback(ctx); rbErr != nil {
			s.logger.Warn(logMsgTxRollbackFailed, logAttrError, rbErr.Error())
		}

		return s.mapError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		s.logger.Error(logMsgTxCommitFailed, logAttrError, err.Error())
		return s.mapError(err)
	}

	return nil
}

// mapError translates driver errors into the circulation sentinels.
// Unique-violation races map to a serialization conflict: the retry re-reads
// the state and reports the accurate precondition violation instead.
func (s *Store) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return s.mapSQLState(pgxErr.Code, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return s.mapSQLState(string(pqErr.Code), err)
	}

	return err
}

func (s *Store) mapSQLState(code string, err error) error {
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeUniqueViolation:
		return fmt.Errorf("%w: %w", circulation.ErrSerializationConflict, err)
	case pgCodeCheckViolation:
		return circulation.NewIntegrityError("storage_check_constraint", "%s", err.Error())
	default:
		return err
	}
}

// session is the Ledger view bound to one open transaction.
type session struct {
	store *Store
	tx    adapters.DBTx
}

var _ circulation.Ledger = (*session)(nil)

func (s *session) table(name string) string {
	return s.store.tablePrefix + name
}

func (s *session) queryRows(ctx context.Context, ds *goqu.SelectDataset) (adapters.DBRows, error) {
	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return nil, err
	}

	start := time.Now()
	rows, err := s.tx.Query(ctx, sqlQuery)
	s.logSQL(sqlQuery, time.Since(start))

	if err != nil {
		s.store.logger.Error(logMsgQueryFailed, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		return nil, err
	}

	return rows, nil
}

func (s *session) execSQL(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, err := s.tx.Exec(ctx, sqlQuery)
	s.logSQL(sqlQuery, time.Since(start))

	if err != nil {
		s.store.logger.Error(logMsgExecFailed, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return rowsAffected, nil
}

func (s *session) closeRows(rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.store.logger.Warn(logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}

func (s *session) logSQL(sqlQuery string, duration time.Duration) {
	s.store.logger.Debug(logMsgSQLExecuted,
		logAttrQuery, sqlQuery,
		logAttrDurationMS, float64(duration.Microseconds())/1000.0,
	)
}

// countQuery runs a SELECT COUNT(*) dataset and returns the count.
func (s *session) countQuery(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return 0, err
	}
	defer s.closeRows(rows)

	count := 0

	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return 0, err
		}
	}

	return count, nil
}
