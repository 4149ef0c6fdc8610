package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrVersionConflict is returned when the row changed since it was read.
	ErrVersionConflict = errors.New("order was modified concurrently")

	// ErrTableOccupied is returned when a dine-in table already has an unsettled order.
	ErrTableOccupied = errors.New("table already has an active order")

	errOrderNumberTaken = fmt.Errorf("%w: order number already allocated", ErrDuplicateKey)
)

// Names of the unique indexes in schema.sql that carry domain meaning.
const (
	orderNumberConstraint = "orders_day_scope_number_key"
	activeTableConstraint = "orders_active_table_key"
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// mapWriteError translates driver errors from INSERT/UPDATE statements.
func mapWriteError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		switch pqErr.Constraint {
		case activeTableConstraint:
			return fmt.Errorf("%w: %s", ErrTableOccupied, action)
		case orderNumberConstraint:
			return fmt.Errorf("%w: %s", errOrderNumberTaken, action)
		}
		return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, action, pqErr.Message)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
}

// mapReadError treats malformed ids (invalid uuid text) like missing rows.
func mapReadError(err error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "invalid_text_representation" {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
}
