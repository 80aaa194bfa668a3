package prettyorm

import (
	"errors"
	"fmt"

	"github.com/gentledepp/prettyorm/logger"
	"github.com/gentledepp/prettyorm/schema"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrInvalidTransaction no transaction is open where one is required
	ErrInvalidTransaction = errors.New("no valid transaction")
	// ErrPrimaryKeyRequired the mapping defines no primary key
	ErrPrimaryKeyRequired = errors.New("primary key required")
	// ErrConnClosed operations on a closed connection
	ErrConnClosed = errors.New("connection closed")
)

// CoercionError reports a fetched cell that cannot be converted to its
// column's semantic type.
type CoercionError struct {
	Column   string
	DataType schema.DataType
	Value    any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("prettyorm: cannot coerce column %s value %v (%T) to %s",
		e.Column, e.Value, e.Value, string(e.DataType))
}

// MigrationError reports a failed schema-evolution statement, surfaced
// verbatim from the execution collaborator.
type MigrationError struct {
	Table string
	Err   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("prettyorm: migrating table %s: %v", e.Table, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// TransactionError reports an aborted batch. No row written by the batch
// persists; the cause is available through Unwrap.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("prettyorm: transaction aborted: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
