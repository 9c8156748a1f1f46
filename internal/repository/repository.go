// Package repository handles all interactions with the database.
//
// Queries are built with squirrel and scanned with scany, against a
// minimal DBInterface so that pgxpool.Pool and pgxmock pools are
// interchangeable.
package repository

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// DBInterface defines the minimal interface needed by the repositories.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builds postgres-flavoured ($1, $2, ...) statements.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
