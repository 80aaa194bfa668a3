// Package dialect generates the SQLite DDL and DML text consumed by the
// mapping layer. It is purely textual: no statement is executed here.
package dialect

import (
	"fmt"
	"strings"

	"github.com/gentledepp/prettyorm/schema"
)

// ColumnType maps a column's semantic type to its SQLite column type. The
// mapping is total over the supported semantic-type set and fails with
// UnsupportedTypeError for anything else.
func ColumnType(f schema.Field) (string, error) {
	switch f.DataType {
	case schema.Bool, schema.Int, schema.Uint, schema.Enum:
		return "integer", nil
	case schema.Float, schema.Decimal:
		return "float", nil
	case schema.String:
		if f.Size > 0 {
			return fmt.Sprintf("varchar(%d)", f.Size), nil
		}
		return "varchar", nil
	case schema.Time, schema.TimeOffset, schema.Duration:
		return "bigint", nil
	case schema.Bytes:
		return "blob", nil
	case schema.UUID:
		return "varchar(36)", nil
	default:
		return "", &schema.UnsupportedTypeError{Field: f.FieldName, DataType: f.DataType}
	}
}

// Quote wraps an identifier in double quotes.
func Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func columnDef(f schema.Field, inlinePK bool) (string, error) {
	columnType, err := ColumnType(f)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(Quote(f.Name))
	sb.WriteByte(' ')
	sb.WriteString(columnType)
	if inlinePK {
		// AUTOINCREMENT is only valid immediately after an inline
		// INTEGER PRIMARY KEY clause.
		sb.WriteString(" PRIMARY KEY AUTOINCREMENT")
	}
	if f.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if f.Collation != "" {
		sb.WriteString(" COLLATE ")
		sb.WriteString(f.Collation)
	}
	return sb.String(), nil
}

// CreateTableSQL renders the table creation statement:
//
//	CREATE TABLE [IF NOT EXISTS] "t" (col type [NOT NULL] [COLLATE c], ..., PRIMARY KEY(col))
func CreateTableSQL(t schema.TableSpec, ifNotExists bool) (string, error) {
	pk, hasPK := t.PrimaryKeyField()
	autoInc := hasPK && pk.AutoIncrement

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(Quote(t.TableName()))
	sb.WriteString(" (")

	for i, f := range t.Fields() {
		if i > 0 {
			sb.WriteString(", ")
		}
		def, err := columnDef(f, autoInc && f.Name == pk.Name)
		if err != nil {
			return "", err
		}
		sb.WriteString(def)
	}

	if hasPK && !autoInc {
		sb.WriteString(", PRIMARY KEY(")
		sb.WriteString(Quote(pk.Name))
		sb.WriteString(")")
	}

	sb.WriteString(")")
	return sb.String(), nil
}

// AddColumnSQL renders an additive migration directive:
//
//	ALTER TABLE "t" ADD COLUMN "c" type [NOT NULL] [COLLATE c]
func AddColumnSQL(table string, f schema.Field) (string, error) {
	def, err := columnDef(f, false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", Quote(table), def), nil
}

// CreateIndexSQL renders index creation. With ifNotExists, reissuing the
// statement against an existing index is a no-op, which the table setup
// protocol relies on.
func CreateIndexSQL(table string, idx schema.Index, ifNotExists bool) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if idx.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(Quote(idx.Name))
	sb.WriteString(" ON ")
	sb.WriteString(Quote(table))
	sb.WriteString("(")
	for i, col := range idx.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Quote(col))
	}
	sb.WriteString(")")
	return sb.String()
}

// InsertSQL renders the full-width insert for a mapping, every column
// including the primary key, in declaration order:
//
//	INSERT [OR REPLACE] INTO "t" (cols) VALUES (?, ...)
func InsertSQL(t schema.TableSpec, orReplace bool) string {
	fields := t.Fields()

	var sb strings.Builder
	sb.WriteString("INSERT ")
	if orReplace {
		sb.WriteString("OR REPLACE ")
	}
	sb.WriteString("INTO ")
	sb.WriteString(Quote(t.TableName()))
	sb.WriteString(" (")
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Quote(f.Name))
	}
	sb.WriteString(") VALUES (")
	for i := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")
	return sb.String()
}

// FindByRowIDSQL renders the read-back query used by the upsert correlator.
func FindByRowIDSQL(t schema.TableSpec) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE rowid = ?", Quote(t.TableName()))
}

// SelectByColumnSQL renders a single-column equality lookup.
func SelectByColumnSQL(table, column string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", Quote(table), Quote(column))
}

// DeleteByColumnSQL renders a single-column equality delete.
func DeleteByColumnSQL(table, column string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", Quote(table), Quote(column))
}

// CountSQL renders a row count query for the table.
func CountSQL(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", Quote(table))
}
