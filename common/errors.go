package common

import (
	"database/sql"
	"fmt"

	"emperror.dev/errors"
	"github.com/lib/pq"
)

// ErrNotFound is returned by point lookups when no row matched.
var ErrNotFound = sql.ErrNoRows

// ConstraintKind says which class of declared invariant a write violated.
type ConstraintKind int

const (
	ConstraintUnique ConstraintKind = iota
	ConstraintCheck
	ConstraintForeignKey
	ConstraintNotNull
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintCheck:
		return "check"
	case ConstraintForeignKey:
		return "foreign_key"
	case ConstraintNotNull:
		return "not_null"
	}
	return "unknown"
}

// ConstraintViolationError is returned for writes the store rejected
// because they would violate a declared constraint. The write had no
// partial effect.
type ConstraintViolationError struct {
	Kind       ConstraintKind
	Table      string
	Constraint string
}

func (c *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation (%s) on %s: %s", c.Kind, c.Table, c.Constraint)
}

// ReferentialIntegrityBlockedError is returned when a delete was refused
// by a RESTRICT edge, history rows referencing the target still exist.
type ReferentialIntegrityBlockedError struct {
	Table      string
	Constraint string
}

func (r *ReferentialIntegrityBlockedError) Error() string {
	return fmt.Sprintf("delete blocked by referential integrity: %s still referenced through %s", r.Table, r.Constraint)
}

// MigrationFailedError wraps a migration failure, the transaction was
// rolled back and the store remains at the prior version. Fatal at
// startup.
type MigrationFailedError struct {
	Version int
	Name    string
	Cause   error
}

func (m *MigrationFailedError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed, store left at prior version: %v", m.Version, m.Name, m.Cause)
}

func (m *MigrationFailedError) Unwrap() error {
	return m.Cause
}

// ClassifyPGError converts postgres driver errors on mutating writes into
// the store's error taxonomy. Errors that aren't constraint related are
// returned wrapped but unclassified.
func ClassifyPGError(err error) error {
	if err == nil {
		return nil
	}

	pqErr, ok := unwrapPQ(err)
	if !ok {
		return errors.WithStackIf(err)
	}

	switch pqErr.Code {
	case "23505":
		return &ConstraintViolationError{Kind: ConstraintUnique, Table: pqErr.Table, Constraint: pqErr.Constraint}
	case "23514":
		return &ConstraintViolationError{Kind: ConstraintCheck, Table: pqErr.Table, Constraint: pqErr.Constraint}
	case "23503":
		return &ConstraintViolationError{Kind: ConstraintForeignKey, Table: pqErr.Table, Constraint: pqErr.Constraint}
	case "23502":
		return &ConstraintViolationError{Kind: ConstraintNotNull, Table: pqErr.Table, Constraint: pqErr.Column}
	}

	return errors.WithStackIf(err)
}

// ClassifyPGDeleteError is ClassifyPGError for deletes: a foreign key
// failure on a delete means a RESTRICT edge refused it.
func ClassifyPGDeleteError(err error) error {
	if err == nil {
		return nil
	}

	if pqErr, ok := unwrapPQ(err); ok && pqErr.Code == "23503" {
		return &ReferentialIntegrityBlockedError{Table: pqErr.Table, Constraint: pqErr.Constraint}
	}

	return ClassifyPGError(err)
}

func unwrapPQ(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}
