package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-index violation from
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite reports "UNIQUE constraint failed: users.username_lower"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UniqueViolationColumn returns the column named by a unique-index violation.
// Postgres exposes the constraint name, sqlite the table.column pair; both
// carry the column text the repositories key off.
func UniqueViolationColumn(err error) (string, bool) {
	if !IsUniqueViolation(err) {
		return "", false
	}
	msg := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		msg = pgErr.ConstraintName
	}
	switch {
	case strings.Contains(msg, "username_lower"):
		return "username_lower", true
	case strings.Contains(msg, "email"):
		return "email", true
	default:
		return "", true
	}
}
