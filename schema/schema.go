package schema

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// CreateFlags select the implicit derivation rules applied when a mapping is
// built.
type CreateFlags uint32

const (
	FlagsNone CreateFlags = 0

	// ImplicitPK treats an unmarked field named "Id" (case-insensitive) as
	// the primary key.
	ImplicitPK CreateFlags = 1 << iota
	// ImplicitIndex gives every non-primary-key column whose name ends in
	// "Id" and carries no explicit index declaration a default non-unique
	// single-column index.
	ImplicitIndex
	// AutoIncPK makes the primary key autoincrement, unless it is a UUID
	// (a UUID key is always client-supplied, never generated).
	AutoIncPK

	AllImplicit = ImplicitPK | ImplicitIndex
)

// Identity is the stable identity of a mapping: the table name plus a content
// hash of its column and index specification. Two mappings built from the same
// registration are identical even when they are distinct instances, so caches
// keyed by Identity tolerate callers that rebuild mappings per call.
type Identity struct {
	Table string
	Hash  uint64
}

// Mapping is the immutable derived description of one record type's table
// mapping. Build it once per type with a Builder and share it freely.
type Mapping[T any] struct {
	table    string
	flags    CreateFlags
	columns  []*Column[T]
	byName   map[string]*Column[T]
	pk       *Column[T]
	indexes  []Index
	identity Identity
	finalize func(*T) error
}

func (m *Mapping[T]) TableName() string        { return m.table }
func (m *Mapping[T]) CreateFlags() CreateFlags { return m.flags }
func (m *Mapping[T]) Identity() Identity       { return m.identity }
func (m *Mapping[T]) TableIndexes() []Index    { return m.indexes }

// Columns returns the mapped columns in declaration order.
func (m *Mapping[T]) Columns() []*Column[T] { return m.columns }

// Column looks up a column by its exact database name.
func (m *Mapping[T]) Column(name string) (*Column[T], bool) {
	c, ok := m.byName[name]
	return c, ok
}

// PrimaryKey returns the primary key column, if the mapping has one.
func (m *Mapping[T]) PrimaryKey() (*Column[T], bool) {
	return m.pk, m.pk != nil
}

// Fields returns the column metadata in declaration order.
func (m *Mapping[T]) Fields() []Field {
	fields := make([]Field, len(m.columns))
	for i, c := range m.columns {
		fields[i] = c.Field
	}
	return fields
}

// PrimaryKeyField returns the primary key column metadata, if any.
func (m *Mapping[T]) PrimaryKeyField() (Field, bool) {
	if m.pk == nil {
		return Field{}, false
	}
	return m.pk.Field, true
}

// BindValues returns rec's storage values in column declaration order,
// ready to bind against the mapping's insert statement.
func (m *Mapping[T]) BindValues(rec *T) []any {
	values := make([]any, len(m.columns))
	for i, c := range m.columns {
		values[i] = c.BindValue(rec)
	}
	return values
}

// Finalize runs the registered finalize hook, turning the mutable
// intermediate record into its final form after hydration. Most record types
// need no hook: field-by-field assignment on a fresh value is already safe.
func (m *Mapping[T]) Finalize(rec *T) error {
	if m.finalize == nil {
		return nil
	}
	return m.finalize(rec)
}

// TableSpec is the type-erased view of a mapping consumed by the SQL text
// generator and the migration planner.
type TableSpec interface {
	TableName() string
	CreateFlags() CreateFlags
	Fields() []Field
	PrimaryKeyField() (Field, bool)
	TableIndexes() []Index
}

// Builder registers the field metadata of a record type T and derives its
// table mapping. It replaces annotation reflection with an explicit
// registration-time API: every column carries typed accessor closures, so an
// index declaration can only ever target a direct field of T.
type Builder[T any] struct {
	name     string
	flags    CreateFlags
	namer    Namer
	columns  []*ColumnBuilder[T]
	finalize func(*T) error
}

// ColumnBuilder accumulates the declaration of one column. Its chainable
// methods mirror the per-field annotations of the original mapping surface.
type ColumnBuilder[T any] struct {
	builder *Builder[T]

	fieldName string
	rename    string
	dataType  DataType
	value     func(rec *T) any
	set       func(rec *T, v any) error

	primaryKey    bool
	autoIncrement bool
	notNull       bool
	collation     string
	size          int
	ignored       bool
	indexes       []IndexSpec
}

// NewBuilder starts a mapping registration for record type T. The name is the
// record type's own name; the table name derives from it through the namer
// unless overridden with Table.
func NewBuilder[T any](name string, flags CreateFlags) *Builder[T] {
	return &Builder[T]{name: name, flags: flags, namer: DefaultNamer{}}
}

// Namer replaces the identifier naming strategy.
func (b *Builder[T]) Namer(namer Namer) *Builder[T] {
	b.namer = namer
	return b
}

// Table overrides the derived table name.
func (b *Builder[T]) Table(name string) *Builder[T] {
	b.name = name
	return b
}

// Finalize registers a hook run after hydration assigns all cells.
func (b *Builder[T]) Finalize(fn func(*T) error) *Builder[T] {
	b.finalize = fn
	return b
}

func (b *Builder[T]) column(fieldName string, dt DataType, value func(*T) any, set func(*T, any) error) *ColumnBuilder[T] {
	cb := &ColumnBuilder[T]{
		builder:   b,
		fieldName: fieldName,
		dataType:  dt,
		value:     value,
		set:       set,
	}
	b.columns = append(b.columns, cb)
	return cb
}

// Rename maps the field to a different column name.
func (cb *ColumnBuilder[T]) Rename(name string) *ColumnBuilder[T] {
	cb.rename = name
	return cb
}

// PrimaryKey marks the column as the table's primary key.
func (cb *ColumnBuilder[T]) PrimaryKey() *ColumnBuilder[T] {
	cb.primaryKey = true
	return cb
}

// AutoIncrement marks the column as server-assigned on insert.
func (cb *ColumnBuilder[T]) AutoIncrement() *ColumnBuilder[T] {
	cb.autoIncrement = true
	return cb
}

// NotNull forbids NULL for the column.
func (cb *ColumnBuilder[T]) NotNull() *ColumnBuilder[T] {
	cb.notNull = true
	return cb
}

// Collate sets the column collation.
func (cb *ColumnBuilder[T]) Collate(collation string) *ColumnBuilder[T] {
	cb.collation = collation
	return cb
}

// Size bounds the stored string length.
func (cb *ColumnBuilder[T]) Size(n int) *ColumnBuilder[T] {
	cb.size = n
	return cb
}

// Ignore excludes the field from the mapping entirely.
func (cb *ColumnBuilder[T]) Ignore() *ColumnBuilder[T] {
	cb.ignored = true
	return cb
}

// Index declares the column as a member of one or more indexes. A zero
// IndexSpec declares a default-named, non-unique, single-column index.
func (cb *ColumnBuilder[T]) Index(specs ...IndexSpec) *ColumnBuilder[T] {
	if len(specs) == 0 {
		specs = []IndexSpec{{}}
	}
	cb.indexes = append(cb.indexes, specs...)
	return cb
}

// Build derives the immutable mapping, applying the implicit rules selected
// by the creation flags and validating the declaration set.
func (b *Builder[T]) Build() (*Mapping[T], error) {
	table := b.namer.TableName(b.name)

	m := &Mapping[T]{
		table:    table,
		flags:    b.flags,
		byName:   map[string]*Column[T]{},
		finalize: b.finalize,
	}

	var declared []*ColumnBuilder[T]
	for _, cb := range b.columns {
		if !cb.ignored {
			declared = append(declared, cb)
		}
	}
	if len(declared) == 0 {
		return nil, fmt.Errorf("prettyorm: table %s: %w", table, ErrNoColumns)
	}

	// implicit primary key: an unmarked field named "Id" when nothing else
	// claims the key
	if b.flags&ImplicitPK != 0 && !hasExplicitPK(declared) {
		for _, cb := range declared {
			if strings.EqualFold(cb.fieldName, "Id") {
				cb.primaryKey = true
				break
			}
		}
	}

	seen := map[string]bool{}
	for _, cb := range declared {
		if !cb.dataType.Supported() {
			return nil, &UnsupportedTypeError{Field: cb.fieldName, DataType: cb.dataType}
		}

		name := cb.rename
		if name == "" {
			name = b.namer.ColumnName(table, cb.fieldName)
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			return nil, fmt.Errorf("prettyorm: table %s, column %s: %w", table, name, ErrDuplicateColumn)
		}
		seen[lower] = true

		autoInc := cb.autoIncrement
		if b.flags&AutoIncPK != 0 && cb.primaryKey {
			autoInc = cb.dataType != UUID
		}
		if cb.dataType == UUID {
			autoInc = false
		}

		col := &Column[T]{
			Field: Field{
				Name:          name,
				FieldName:     cb.fieldName,
				DataType:      cb.dataType,
				PrimaryKey:    cb.primaryKey,
				AutoIncrement: cb.primaryKey && autoInc,
				NotNull:       cb.primaryKey || cb.notNull,
				Collation:     cb.collation,
				Size:          cb.size,
			},
			value: cb.value,
			set:   cb.set,
		}

		if col.PrimaryKey {
			if m.pk != nil {
				return nil, fmt.Errorf("prettyorm: table %s: %w", table, ErrMultiplePrimaryKeys)
			}
			m.pk = col
		}

		m.columns = append(m.columns, col)
		m.byName[name] = col
	}

	declaredIndexes, err := b.collectIndexes(m, declared)
	if err != nil {
		return nil, err
	}
	m.indexes = declaredIndexes
	m.identity = computeIdentity(m)

	return m, nil
}

func hasExplicitPK[T any](columns []*ColumnBuilder[T]) bool {
	for _, cb := range columns {
		if cb.primaryKey {
			return true
		}
	}
	return false
}

func (b *Builder[T]) collectIndexes(m *Mapping[T], declared []*ColumnBuilder[T]) ([]Index, error) {
	var members []indexedColumn
	for i, cb := range declared {
		col := m.columns[i]
		if len(cb.indexes) == 0 {
			// implicit index for foreign-key style "...Id" columns
			if b.flags&ImplicitIndex != 0 && !col.PrimaryKey && strings.HasSuffix(col.Name, "Id") {
				members = append(members, indexedColumn{column: col.Name, spec: IndexSpec{}})
			}
			continue
		}
		for _, spec := range cb.indexes {
			members = append(members, indexedColumn{column: col.Name, spec: spec})
		}
	}
	return planIndexes(m.table, b.namer, members)
}

// computeIdentity hashes the column and index specification so equal mappings
// share cache entries regardless of instance identity.
func computeIdentity[T any](m *Mapping[T]) Identity {
	h := murmur3.New64()
	writeString := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	writeInt := func(n uint64) {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		_, _ = h.Write(buf[:])
	}

	writeString(m.table)
	writeInt(uint64(m.flags))
	for _, c := range m.columns {
		writeString(c.Name)
		writeString(string(c.DataType))
		writeString(c.Collation)
		var bits uint64
		if c.PrimaryKey {
			bits |= 1
		}
		if c.AutoIncrement {
			bits |= 2
		}
		if c.NotNull {
			bits |= 4
		}
		writeInt(bits)
		writeInt(uint64(c.Size))
	}
	for _, idx := range m.indexes {
		writeString(idx.Name)
		if idx.Unique {
			writeInt(1)
		} else {
			writeInt(0)
		}
		for _, col := range idx.Columns {
			writeString(col)
		}
	}

	return Identity{Table: m.table, Hash: h.Sum64()}
}

// Typed column registration.
//
// Integer-kind and float-kind registrations are top-level generic functions
// because Go methods cannot carry their own type parameters; everything else
// hangs off the builder directly.

type integerValue interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsignedValue interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type floatValue interface {
	~float32 | ~float64
}

// Integer registers a signed integer field of any width.
func Integer[T any, V integerValue](b *Builder[T], name string, get func(*T) V, set func(*T, V)) *ColumnBuilder[T] {
	return b.column(name, Int,
		func(rec *T) any { return int64(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, 0)
				return nil
			}
			set(rec, V(v.(int64)))
			return nil
		})
}

// Unsigned registers an unsigned integer field of any width.
func Unsigned[T any, V unsignedValue](b *Builder[T], name string, get func(*T) V, set func(*T, V)) *ColumnBuilder[T] {
	cb := b.column(name, Uint,
		func(rec *T) any { return int64(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, 0)
				return nil
			}
			set(rec, V(v.(int64)))
			return nil
		})
	return cb
}

// EnumOf registers an enumeration field, stored as its integer value.
func EnumOf[T any, V integerValue](b *Builder[T], name string, get func(*T) V, set func(*T, V)) *ColumnBuilder[T] {
	cb := Integer(b, name, get, set)
	cb.dataType = Enum
	return cb
}

// FloatOf registers a floating point field of either width.
func FloatOf[T any, V floatValue](b *Builder[T], name string, get func(*T) V, set func(*T, V)) *ColumnBuilder[T] {
	return b.column(name, Float,
		func(rec *T) any { return float64(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, 0)
				return nil
			}
			set(rec, V(v.(float64)))
			return nil
		})
}

// Bool registers a boolean field, stored as 0 or 1.
func (b *Builder[T]) Bool(name string, get func(*T) bool, set func(*T, bool)) *ColumnBuilder[T] {
	return b.column(name, Bool,
		func(rec *T) any { return get(rec) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, false)
				return nil
			}
			set(rec, v.(bool))
			return nil
		})
}

// String registers a string field. Use Size to bound its stored length.
func (b *Builder[T]) String(name string, get func(*T) string, set func(*T, string)) *ColumnBuilder[T] {
	return b.column(name, String,
		func(rec *T) any { return get(rec) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, "")
				return nil
			}
			set(rec, v.(string))
			return nil
		})
}

// NullString registers a nullable string field backed by a pointer.
func (b *Builder[T]) NullString(name string, get func(*T) *string, set func(*T, *string)) *ColumnBuilder[T] {
	return b.column(name, String,
		func(rec *T) any {
			if p := get(rec); p != nil {
				return *p
			}
			return nil
		},
		func(rec *T, v any) error {
			if v == nil {
				set(rec, nil)
				return nil
			}
			s := v.(string)
			set(rec, &s)
			return nil
		})
}

// Decimal registers a decimal field, stored as a float.
func (b *Builder[T]) Decimal(name string, get func(*T) float64, set func(*T, float64)) *ColumnBuilder[T] {
	cb := b.column(name, Decimal,
		func(rec *T) any { return get(rec) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, 0)
				return nil
			}
			set(rec, v.(float64))
			return nil
		})
	return cb
}

// Time registers an instant field, stored as unix nanoseconds.
func (b *Builder[T]) Time(name string, get func(*T) time.Time, set func(*T, time.Time)) *ColumnBuilder[T] {
	return b.column(name, Time,
		func(rec *T) any { return encodeTime(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, time.Time{})
				return nil
			}
			set(rec, v.(time.Time))
			return nil
		})
}

// NullTime registers a nullable instant field backed by a pointer.
func (b *Builder[T]) NullTime(name string, get func(*T) *time.Time, set func(*T, *time.Time)) *ColumnBuilder[T] {
	return b.column(name, Time,
		func(rec *T) any {
			if p := get(rec); p != nil {
				return encodeTime(*p)
			}
			return nil
		},
		func(rec *T, v any) error {
			if v == nil {
				set(rec, nil)
				return nil
			}
			t := v.(time.Time)
			set(rec, &t)
			return nil
		})
}

// TimeWithOffset registers an instant-with-offset field. The offset is
// normalized away on storage: values come back in UTC.
func (b *Builder[T]) TimeWithOffset(name string, get func(*T) time.Time, set func(*T, time.Time)) *ColumnBuilder[T] {
	cb := b.Time(name, get, set)
	cb.dataType = TimeOffset
	return cb
}

// Duration registers a duration field, stored as nanoseconds.
func (b *Builder[T]) Duration(name string, get func(*T) time.Duration, set func(*T, time.Duration)) *ColumnBuilder[T] {
	return b.column(name, Duration,
		func(rec *T) any { return int64(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, 0)
				return nil
			}
			set(rec, time.Duration(v.(int64)))
			return nil
		})
}

// Bytes registers a byte sequence field, stored as a blob.
func (b *Builder[T]) Bytes(name string, get func(*T) []byte, set func(*T, []byte)) *ColumnBuilder[T] {
	return b.column(name, Bytes,
		func(rec *T) any { return get(rec) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, nil)
				return nil
			}
			set(rec, v.([]byte))
			return nil
		})
}

// UUID registers a UUID field, stored in canonical 36-character form.
func (b *Builder[T]) UUID(name string, get func(*T) uuid.UUID, set func(*T, uuid.UUID)) *ColumnBuilder[T] {
	return b.column(name, UUID,
		func(rec *T) any { return encodeUUID(get(rec)) },
		func(rec *T, v any) error {
			if v == nil {
				set(rec, uuid.UUID{})
				return nil
			}
			set(rec, v.(uuid.UUID))
			return nil
		})
}

// Column registers a column with an explicit semantic type and untyped
// accessors. It exists for generated code; Build rejects data types outside
// the supported set.
func (b *Builder[T]) Column(name string, dt DataType, get func(*T) any, set func(*T, any) error) *ColumnBuilder[T] {
	return b.column(name, dt, get, set)
}
