package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by single-row lookups that match zero rows.
var ErrNotFound = errors.New("store: not found")

// IntegrityError reports a violated store invariant: a column that must be
// unique across all rows matched more than one row. It is always fatal and
// never auto-repaired; picking one row would silently hide corruption.
type IntegrityError struct {
	Table  string
	Column string
	Value  string
	Rows   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("store integrity violation: %s.%s = %q matched %d rows, want at most 1",
		e.Table, e.Column, e.Value, e.Rows)
}

// IsIntegrityError returns true if err is (or wraps) an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// DuplicateError reports a uniqueness-constraint violation on insert.
// This is an expected, recoverable outcome under concurrent submissions:
// it means another run just accepted the same content.
type DuplicateError struct {
	Table string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate row in %s: %v", e.Table, e.Err)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// IsDuplicate returns true if err is (or wraps) a DuplicateError.
func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}

// wrapInsertError classifies a driver error from an insert: UNIQUE
// constraint violations become DuplicateError, everything else passes
// through wrapped.
func wrapInsertError(table string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &DuplicateError{Table: table, Err: err}
	}
	return fmt.Errorf("insert into %s: %w", table, err)
}
