package schema

import (
	"time"

	"github.com/google/uuid"
)

// DataType is the semantic type of a mapped column. The set is closed: the
// dialect's column-type mapping is total over it and rejects anything else.
type DataType string

const (
	Bool       DataType = "bool"
	Int        DataType = "int"
	Uint       DataType = "uint"
	Enum       DataType = "enum"
	Float      DataType = "float"
	Decimal    DataType = "decimal"
	String     DataType = "string"
	Time       DataType = "time"       // instant, stored as unix nanoseconds
	TimeOffset DataType = "timeoffset" // instant with offset, normalized to UTC nanoseconds
	Duration   DataType = "duration"   // stored as nanoseconds
	Bytes      DataType = "bytes"
	UUID       DataType = "uuid"
)

// supportedDataTypes is the closed semantic-type set of the mapper.
var supportedDataTypes = map[DataType]bool{
	Bool: true, Int: true, Uint: true, Enum: true,
	Float: true, Decimal: true, String: true,
	Time: true, TimeOffset: true, Duration: true,
	Bytes: true, UUID: true,
}

// Supported reports whether dt belongs to the mapper's semantic-type set.
func (dt DataType) Supported() bool {
	return supportedDataTypes[dt]
}

// Field is the column-level metadata of one mapped record field.
type Field struct {
	Name          string // column name, after any rename
	FieldName     string // record field name as registered
	DataType      DataType
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Collation     string
	Size          int // bounded string length, 0 = unbounded
}

// Column binds one record field of T to its column metadata. The value and
// setter closures are built by the registration builder, so a column can only
// ever refer to a direct field of T.
type Column[T any] struct {
	Field

	// value returns the driver-bindable representation of the field,
	// already encoded for storage (times and durations as int64, UUIDs as
	// canonical strings).
	value func(rec *T) any

	// set assigns a coerced canonical value to the field. A nil value
	// resets the field to its zero value (NULL cell on a value column) or
	// to a nil pointer (nullable column).
	set func(rec *T, v any) error
}

// BindValue returns the storage representation of this column for rec.
// An autoincrement primary key whose value is zero binds as NULL so the
// database assigns the row id.
func (c *Column[T]) BindValue(rec *T) any {
	v := c.value(rec)
	if c.AutoIncrement && c.PrimaryKey {
		if n, ok := v.(int64); ok && n == 0 {
			return nil
		}
	}
	return v
}

// Assign stores a coerced canonical value into rec's field.
func (c *Column[T]) Assign(rec *T, v any) error {
	return c.set(rec, v)
}

// encodeTime converts an instant to its stored integer representation.
// Hydration decodes it back with time.Unix(0, n).UTC().
func encodeTime(t time.Time) int64 { return t.UnixNano() }

// encodeUUID stores UUIDs in their canonical 36-character form.
func encodeUUID(id uuid.UUID) string { return id.String() }
