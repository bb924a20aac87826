// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"postshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the row lock taken by every read-modify-write. SQLite ignores it and relies on
// its single writer connection instead.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// mapError converts a driver error into an AppError. AppErrors raised inside a mutation
// callback pass through unchanged.
func mapError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewTimeoutError(err)
	default:
		return models.NewInternalError(err)
	}
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// withColumns appends the bookkeeping columns every partial update must write.
func withColumns(columns []string, extra ...string) []string {
	out := make([]string, 0, len(columns)+len(extra))
	out = append(out, columns...)
	for _, col := range extra {
		found := false
		for _, c := range out {
			if c == col {
				found = true
				break
			}
		}
		if !found {
			out = append(out, col)
		}
	}
	return out
}

// escapeLike quotes LIKE metacharacters so the term matches literally with ESCAPE '\'.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
