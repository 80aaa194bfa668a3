package prettyorm

import (
	"context"
	"strings"
	"time"

	"github.com/gentledepp/prettyorm/dialect"
	"github.com/gentledepp/prettyorm/schema"
)

// PlanAddColumns computes the columns present in the mapping but absent from
// the live table, compared case-insensitively. The result is additive-only:
// no drop, rename or type-alter directives, ever. Running the planner against
// a table that already has every mapped column yields an empty plan.
func PlanAddColumns(spec schema.TableSpec, live []ColumnInfo) []schema.Field {
	existing := make(map[string]bool, len(live))
	for _, col := range live {
		existing[strings.ToLower(col.Name)] = true
	}

	var missing []schema.Field
	for _, f := range spec.Fields() {
		if !existing[strings.ToLower(f.Name)] {
			missing = append(missing, f)
		}
	}
	return missing
}

// CreateTable brings the live table in line with the mapping: it issues the
// creation statement, applies the planner's add-column directives against a
// pre-existing table, and unconditionally (re)issues every index creation,
// relying on IF NOT EXISTS to make repeats a no-op.
func (db *DB) CreateTable(ctx context.Context, spec schema.TableSpec) error {
	begin := time.Now()
	added, err := db.createTable(ctx, spec)
	db.metrics.ReportMigration(spec.TableName(), added, time.Since(begin), err)
	return err
}

func (db *DB) createTable(ctx context.Context, spec schema.TableSpec) (added int, err error) {
	table := spec.TableName()

	createSQL, err := dialect.CreateTableSQL(spec, true)
	if err != nil {
		return 0, err
	}

	begin := time.Now()
	_, err = db.conn.Execute(ctx, createSQL)
	db.trace(ctx, begin, createSQL, -1, err)
	if err != nil {
		return 0, &MigrationError{Table: table, Err: err}
	}

	// the creation statement is a no-op against an existing table; diff
	// the live columns and add what the mapping gained since
	live, err := db.conn.TableColumns(ctx, table)
	if err != nil {
		return 0, &MigrationError{Table: table, Err: err}
	}

	for _, f := range PlanAddColumns(spec, live) {
		addSQL, err := dialect.AddColumnSQL(table, f)
		if err != nil {
			return added, err
		}
		begin = time.Now()
		_, err = db.conn.Execute(ctx, addSQL)
		db.trace(ctx, begin, addSQL, -1, err)
		if err != nil {
			return added, &MigrationError{Table: table, Err: err}
		}
		added++
	}

	for _, idx := range spec.TableIndexes() {
		indexSQL := dialect.CreateIndexSQL(table, idx, true)
		begin = time.Now()
		_, err = db.conn.Execute(ctx, indexSQL)
		db.trace(ctx, begin, indexSQL, -1, err)
		if err != nil {
			return added, &MigrationError{Table: table, Err: err}
		}
	}

	return added, nil
}
