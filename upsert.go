package prettyorm

import (
	"context"
	"time"

	"github.com/gentledepp/prettyorm/dialect"
	"github.com/gentledepp/prettyorm/schema"
)

// UpsertAll insert-or-replaces every record in one transaction and correlates
// each input with the row actually persisted: after every insert the row is
// re-read by its row id, hydrated, and projected through project.
//
// The returned map is keyed by input equality; when two equal records appear
// in one batch, the later occurrence's result wins there. The slice carries
// one result per input occurrence, in input order.
//
// The whole batch is atomic: if any step fails, no row from this call
// persists and the error is a *TransactionError. The insert-execute,
// row-id-read, and read-back steps run strictly in sequence on the one
// connection; no other statement may run on it during the batch.
func UpsertAll[A comparable, B any](ctx context.Context, db *DB, m *schema.Mapping[A], records []A, project func(*A) B) (map[A]B, []B, error) {
	return correlate(ctx, db, m, records, true, project)
}

// Upsert is the single-record case of UpsertAll, likewise
// transaction-wrapped.
func Upsert[A comparable, B any](ctx context.Context, db *DB, m *schema.Mapping[A], record A, project func(*A) B) (B, error) {
	_, seq, err := UpsertAll(ctx, db, m, []A{record}, project)
	if err != nil {
		var zero B
		return zero, err
	}
	return seq[0], nil
}

// InsertAll is UpsertAll without replacement: a primary-key collision fails
// the batch instead of overwriting the existing row.
func InsertAll[A comparable, B any](ctx context.Context, db *DB, m *schema.Mapping[A], records []A, project func(*A) B) (map[A]B, []B, error) {
	return correlate(ctx, db, m, records, false, project)
}

// Insert is the single-record case of InsertAll.
func Insert[A comparable, B any](ctx context.Context, db *DB, m *schema.Mapping[A], record A, project func(*A) B) (B, error) {
	_, seq, err := InsertAll(ctx, db, m, []A{record}, project)
	if err != nil {
		var zero B
		return zero, err
	}
	return seq[0], nil
}

func correlate[A comparable, B any](ctx context.Context, db *DB, m *schema.Mapping[A], records []A, orReplace bool, project func(*A) B) (map[A]B, []B, error) {
	results := make(map[A]B, len(records))
	sequence := make([]B, 0, len(records))
	if len(records) == 0 {
		return results, sequence, nil
	}

	kind := KindInsert
	if orReplace {
		kind = KindInsertOrReplace
	}
	insertSQL := db.cache.Get(m.Identity(), kind, func() string {
		return dialect.InsertSQL(m, orReplace)
	})
	findSQL := db.cache.Get(m.Identity(), KindFindByRowID, func() string {
		return dialect.FindByRowIDSQL(m)
	})

	begin := time.Now()
	err := db.conn.RunInTransaction(ctx, func(ctx context.Context) error {
		insert, err := db.conn.Prepare(ctx, insertSQL)
		if err != nil {
			return err
		}
		defer insert.Close()

		find, err := db.conn.Prepare(ctx, findSQL)
		if err != nil {
			return err
		}
		defer find.Close()

		for i := range records {
			if _, err := insert.Execute(ctx, m.BindValues(&records[i])...); err != nil {
				return err
			}

			// only valid while nothing else has run on this
			// connection since the insert
			rowID := db.conn.LastInsertRowID()

			rows, err := find.Query(ctx, rowID)
			if err != nil {
				return err
			}
			hydrated, err := Hydrate(rows, m)
			closeErr := rows.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}

			result := project(hydrated)
			results[records[i]] = result
			sequence = append(sequence, result)
		}
		return nil
	})

	db.trace(ctx, begin, insertSQL, int64(len(sequence)), err)
	db.metrics.ReportBatch(m.TableName(), len(records), time.Since(begin), err)

	if err != nil {
		return nil, nil, &TransactionError{Err: err}
	}
	return results, sequence, nil
}
