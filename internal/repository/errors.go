// Package repository defines error types that are reused across multiple
// repositories.  These values allow higher layers such as services and
// handlers to distinguish between different failure scenarios without
// inspecting driver errors themselves.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is matched (via errors.Is) by every *NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when the store aborts a write because of a
// concurrent transaction (deadlock or lock wait timeout).  Callers may
// retry; handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// NotFoundError names the missing resource and the id that was looked up.
type NotFoundError struct {
	Resource string
	ID       uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferenceError is returned when a write names a related row that does
// not exist (or deletes a row that is still referenced).  Field is the
// payload field carrying the bad reference when it is known.
type ReferenceError struct {
	Field string
	Err   error
}

func (e *ReferenceError) Error() string {
	if e.Field == "" {
		return "invalid reference"
	}
	return fmt.Sprintf("invalid reference in %s", e.Field)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// MySQL server error numbers classified by this package.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
	errLockWaitTimeout = 1205
	errLockDeadlock    = 1213
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isForeignKeyViolation(err error) bool {
	n := mysqlErrNumber(err)
	return n == errNoReferencedRow || n == errRowIsReferenced
}

func isTxConflict(err error) bool {
	n := mysqlErrNumber(err)
	return n == errLockDeadlock || n == errLockWaitTimeout
}

// classify maps driver errors onto the package's error values.  field is
// used for foreign key violations.
func classify(err error, field string) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return &ReferenceError{Field: field, Err: err}
	case isTxConflict(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// referenceField names the payload field behind a foreign key violation
// by matching the constraint name in the server message against fields.
// fallback is used when no constraint matches.
func referenceField(err error, fields map[string]string, fallback string) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		for constraint, field := range fields {
			if strings.Contains(me.Message, constraint) {
				return field
			}
		}
	}
	return fallback
}
