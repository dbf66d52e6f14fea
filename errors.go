package xorm

import (
	"errors"
	"fmt"
)

// Registration errors. Register returns no model when it fails with one of these.
var (
	ErrDuplicatePrimaryKey = errors.New("xorm: duplicate primary key")
	ErrMissingPrimaryKey   = errors.New("xorm: primary key not found")
	ErrEmptyModelName      = errors.New("xorm: empty model name")
	ErrDuplicateAttribute  = errors.New("xorm: duplicate attribute")
	ErrDuplicateColumn     = errors.New("xorm: duplicate column")
)

// ErrInvalidLimit is returned by FindAll when the limit is neither an integer
// nor a two-element (offset, count) pair.
var ErrInvalidLimit = errors.New("xorm: invalid limit value")

// ErrAttributeNotFound is returned by Record.Get for keys the record does not hold.
var ErrAttributeNotFound = errors.New("xorm: attribute not found")

// ErrNothingToUpdate is returned by Record.Update on a model that only maps its primary key.
var ErrNothingToUpdate = errors.New("xorm: model has no non-key fields to update")

// ErrNoTxSupport is returned by DB.Execute with autoCommit=false when the
// underlying Conn cannot begin transactions.
var ErrNoTxSupport = errors.New("xorm: transaction not supported")

// ErrAffectedRows is returned by CheckAffected when a write did not touch exactly one row.
var ErrAffectedRows = errors.New("xorm: unexpected affected rows")

// CheckAffected turns the affected-row count returned by Save, Update and
// Remove into an error. Writes themselves only log the mismatch.
func CheckAffected(n int64) error {
	if n != 1 {
		return fmt.Errorf("%w: %d", ErrAffectedRows, n)
	}
	return nil
}
