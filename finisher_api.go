package prettyorm

import (
	"context"
	"time"

	"github.com/gentledepp/prettyorm/dialect"
	"github.com/gentledepp/prettyorm/schema"
)

// Find fetches the record whose primary key equals pk. Returns
// ErrRecordNotFound when no row matches and ErrPrimaryKeyRequired when the
// mapping has no primary key.
func Find[T any](ctx context.Context, db *DB, m *schema.Mapping[T], pk any) (*T, error) {
	pkCol, ok := m.PrimaryKey()
	if !ok {
		return nil, ErrPrimaryKeyRequired
	}

	query := dialect.SelectByColumnSQL(m.TableName(), pkCol.Name)
	begin := time.Now()
	rows, err := db.conn.Query(ctx, query, pk)
	if err != nil {
		db.trace(ctx, begin, query, -1, err)
		return nil, err
	}
	defer rows.Close()

	rec, err := Hydrate(rows, m)
	db.trace(ctx, begin, query, 1, err)
	return rec, err
}

// FindByRowID fetches the record stored under the given row id.
func FindByRowID[T any](ctx context.Context, db *DB, m *schema.Mapping[T], rowID int64) (*T, error) {
	query := db.cache.Get(m.Identity(), KindFindByRowID, func() string {
		return dialect.FindByRowIDSQL(m)
	})

	begin := time.Now()
	rows, err := db.conn.Query(ctx, query, rowID)
	if err != nil {
		db.trace(ctx, begin, query, -1, err)
		return nil, err
	}
	defer rows.Close()

	rec, err := Hydrate(rows, m)
	db.trace(ctx, begin, query, 1, err)
	return rec, err
}

// Delete removes the record whose primary key equals pk. Deleting an absent
// key is not an error; the affected row count is returned.
func Delete[T any](ctx context.Context, db *DB, m *schema.Mapping[T], pk any) (int64, error) {
	pkCol, ok := m.PrimaryKey()
	if !ok {
		return 0, ErrPrimaryKeyRequired
	}

	query := dialect.DeleteByColumnSQL(m.TableName(), pkCol.Name)
	begin := time.Now()
	affected, err := db.conn.Execute(ctx, query, pk)
	db.trace(ctx, begin, query, affected, err)
	return affected, err
}

// Count reports the table's row count.
func Count(ctx context.Context, db *DB, spec schema.TableSpec) (int64, error) {
	query := dialect.CountSQL(spec.TableName())
	begin := time.Now()
	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		db.trace(ctx, begin, query, -1, err)
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		err := rows.Err()
		db.trace(ctx, begin, query, -1, err)
		return 0, err
	}
	values, err := rows.Values()
	if err != nil {
		return 0, err
	}
	db.trace(ctx, begin, query, 1, nil)

	count, _ := values[0].(int64)
	return count, nil
}
