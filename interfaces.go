package prettyorm

import "context"

// Conn is the statement execution collaborator the mapping layer runs on.
// One Conn represents one database connection: LastInsertRowID is only
// meaningful until another statement executes on the same Conn, so callers
// must serialize batches per Conn.
type Conn interface {
	// Execute runs a statement and returns the number of affected rows.
	Execute(ctx context.Context, query string, args ...any) (int64, error)

	// Prepare compiles a reusable statement handle.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// Query runs a query and returns a lazy row sequence.
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// LastInsertRowID returns the row id of the most recently inserted
	// row. Connection-scoped; stale as soon as any other statement runs.
	LastInsertRowID() int64

	// RunInTransaction executes fn atomically: its effects commit only if
	// fn returns nil. A call made inside an open transaction joins it.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// TableColumns describes the live schema of a table. An unknown table
	// yields an empty slice, not an error.
	TableColumns(ctx context.Context, table string) ([]ColumnInfo, error)
}

// Stmt is a prepared statement bound to its Conn and, inside a transaction,
// to that transaction.
type Stmt interface {
	Execute(ctx context.Context, args ...any) (int64, error)
	Query(ctx context.Context, args ...any) (Rows, error)
	Close() error
}

// Rows is a lazy sequence of fetched rows. Values returns the current row's
// raw cell values, positionally aligned with Columns.
type Rows interface {
	Next() bool
	Columns() ([]string, error)
	Values() ([]any, error)
	Close() error
	Err() error
}

// ColumnInfo is the stored metadata of one live table column.
type ColumnInfo struct {
	Name       string
	DeclType   string
	NotNull    bool
	PrimaryKey bool
}
