package prettyorm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gentledepp/prettyorm/dialect"
	"github.com/gentledepp/prettyorm/logger"
)

// Config configures a DB handle.
type Config struct {
	Logger  logger.Interface
	Metrics MetricsReporter
}

// DB couples one execution collaborator with the handle-level services the
// mapping layer needs: logging, metrics, and the SQL cache.
//
// A DB is bound to a single connection. Statements sharing it must not run
// in parallel during a batch; that discipline is the caller's, not enforced
// here.
type DB struct {
	conn    Conn
	logger  logger.Interface
	metrics MetricsReporter
	cache   *SQLCache
}

// New wraps an existing execution collaborator.
func New(conn Conn, cfg Config) *DB {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	return &DB{
		conn:    conn,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		cache:   NewSQLCache(),
	}
}

// Open opens an SQLite database and binds the handle to one dedicated
// connection, keeping last-insert-rowid and transaction state on a single
// session.
func Open(ctx context.Context, dsn string, cfg Config) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("prettyorm: open %s: %w", dsn, err)
	}
	sqlDB.SetMaxOpenConns(1)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("prettyorm: open %s: %w", dsn, err)
	}

	return New(&sqliteConn{db: sqlDB, conn: conn}, cfg), nil
}

// Conn exposes the underlying execution collaborator.
func (db *DB) Conn() Conn { return db.conn }

// Logger returns the configured logger.
func (db *DB) Logger() logger.Interface { return db.logger }

// Cache returns the handle's SQL cache.
func (db *DB) Cache() *SQLCache { return db.cache }

// Close releases the underlying connection when the handle owns one.
func (db *DB) Close() error {
	if closer, ok := db.conn.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (db *DB) trace(ctx context.Context, begin time.Time, sql string, rows int64, err error) {
	db.logger.Trace(ctx, begin, func() (string, int64) { return sql, rows }, err)
}

// sqlExecutor is the common surface of *sql.Conn and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// sqliteConn implements Conn on one dedicated database/sql connection.
// Not safe for concurrent use; see the Conn contract.
type sqliteConn struct {
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	lastID int64
	closed bool
}

func (c *sqliteConn) executor() sqlExecutor {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *sqliteConn) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	if c.closed {
		return 0, ErrConnClosed
	}
	res, err := c.executor().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	c.captureLastID(res)
	return res.RowsAffected()
}

func (c *sqliteConn) Prepare(ctx context.Context, query string) (Stmt, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	stmt, err := c.executor().PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqliteStmt{conn: c, stmt: stmt}, nil
}

func (c *sqliteConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	rows, err := c.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqliteRows{rows: rows}, nil
}

func (c *sqliteConn) LastInsertRowID() int64 { return c.lastID }

func (c *sqliteConn) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.closed {
		return ErrConnClosed
	}
	if c.tx != nil {
		// joined into the ambient transaction
		return fn(ctx)
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx

	done := false
	defer func() {
		c.tx = nil
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx); err != nil {
		done = true
		_ = tx.Rollback()
		return err
	}

	done = true
	return tx.Commit()
}

func (c *sqliteConn) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	rows, err := c.executor().QueryContext(ctx, "PRAGMA table_info("+dialect.Quote(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnInfo{
			Name:       name,
			DeclType:   declType,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}
	return columns, rows.Err()
}

func (c *sqliteConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	connErr := c.conn.Close()
	if err := c.db.Close(); err != nil {
		return err
	}
	return connErr
}

func (c *sqliteConn) captureLastID(res sql.Result) {
	if id, err := res.LastInsertId(); err == nil {
		c.lastID = id
	}
}

type sqliteStmt struct {
	conn *sqliteConn
	stmt *sql.Stmt
}

func (s *sqliteStmt) Execute(ctx context.Context, args ...any) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	s.conn.captureLastID(res)
	return res.RowsAffected()
}

func (s *sqliteStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &sqliteRows{rows: rows}, nil
}

func (s *sqliteStmt) Close() error { return s.stmt.Close() }

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool { return r.rows.Next() }

func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }

func (r *sqliteRows) Close() error { return r.rows.Close() }

func (r *sqliteRows) Err() error { return r.rows.Err() }

func (r *sqliteRows) Values() ([]any, error) {
	columns, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	// the driver may reuse byte buffers between rows
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			copied := make([]byte, len(b))
			copy(copied, b)
			values[i] = copied
		}
	}
	return values, nil
}
