package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// isDuplicateKeyError reports whether err is a unique constraint violation
// on the named constraint.
func isDuplicateKeyError(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") &&
		strings.Contains(msg, constraint)
}

// withTx runs fn inside a transaction, rolling back when fn fails.
// Errors returned by fn are passed through unchanged.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("failed to rollback transaction: %v (from: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
