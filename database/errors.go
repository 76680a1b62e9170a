package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Error kinds reported by the store. Match them with errors.Is.
var (
	// ErrConfiguration means the store cannot operate against the database as
	// found, e.g. required tables are missing and no schema was supplied.
	ErrConfiguration = errors.New("configuration error")
	// ErrDuplicate means an image with the same fingerprint is already recorded.
	ErrDuplicate = errors.New("duplicate image")
	// ErrStorage covers every other persistence failure.
	ErrStorage = errors.New("storage error")
)

// Error is returned by every Store operation that fails.
type Error struct {
	Kind error  // one of ErrConfiguration, ErrDuplicate, ErrStorage
	Op   string // store operation, e.g. "insert image"
	Err  error
	// Rejected marks a storage error caused by the request itself: a schema
	// constraint failed, the field set was invalid or the row does not exist.
	// Other storage errors are failures of the database.
	Rejected bool
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("database: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("database: %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func configError(op string, err error) error {
	return &Error{Kind: ErrConfiguration, Op: op, Err: err}
}

func duplicateError(op string, err error) error {
	return &Error{Kind: ErrDuplicate, Op: op, Err: err}
}

func storageError(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err, Rejected: isConstraintViolation(err)}
}

func rejectedError(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err, Rejected: true}
}

// IsRejected reports whether err is a storage error the store refused because
// of the data it was given.
func IsRejected(err error) bool {
	var dbErr *Error
	return errors.As(err, &dbErr) && dbErr.Kind == ErrStorage && dbErr.Rejected
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
