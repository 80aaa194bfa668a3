package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn two registered fields resolve to the same column name
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrMultiplePrimaryKeys more than one column is marked primary key
	ErrMultiplePrimaryKeys = errors.New("multiple primary key columns")
	// ErrNoColumns a mapping needs at least one column
	ErrNoColumns = errors.New("mapping has no columns")
)

// UnsupportedTypeError reports a field whose semantic type is outside the
// mapper's closed type set. It is a programmer error raised at
// descriptor-construction time, never at data-access time.
type UnsupportedTypeError struct {
	Field    string
	DataType DataType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("prettyorm: unsupported data type %q for field %s", string(e.DataType), e.Field)
}

// IndexError reports conflicting index declarations sharing one index name.
type IndexError struct {
	Name   string
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("prettyorm: invalid index %q: %s", e.Name, e.Reason)
}
