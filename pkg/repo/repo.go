package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is the subset of pgx.Tx and pgxpool.Pool used by repositories.
type Tx interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UnitScope restricts a query to a set of owning org units.
// Clause returns an empty string when every unit is visible.
type UnitScope interface {
	Clause(column string, argPos int) (string, []any)
}

func FormatLimitOffset(limit, offset int) string {
	if limit > 0 && offset > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
	if limit > 0 {
		return fmt.Sprintf("LIMIT %d", limit)
	}
	if offset > 0 {
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}

// ErrMissingScope is returned by list queries over scoped records that were
// called without a UnitScope.
var ErrMissingScope = errors.New("query scope is required")

// AppendScope adds scope's clause over column to where, numbering its
// placeholder after args.
func AppendScope(where []string, args []any, scope UnitScope, column string) ([]string, []any, error) {
	if scope == nil {
		return where, args, ErrMissingScope
	}
	clause, scopeArgs := scope.Clause(column, len(args)+1)
	if clause == "" {
		return where, args, nil
	}
	return append(where, clause), append(args, scopeArgs...), nil
}
