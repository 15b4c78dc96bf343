// Package pgxstub provides in-process doubles for repo.Tx and pgx rows so
// repositories can be tested without a database.
package pgxstub

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Tx struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	var results pgx.BatchResults
	return results
}

func (s *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if s.ExecFunc == nil {
		return pgconn.CommandTag{}, errors.New("exec not implemented")
	}
	return s.ExecFunc(ctx, sql, arguments...)
}

func (s *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.QueryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.QueryFunc(ctx, sql, args...)
}

func (s *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.QueryRowFunc == nil {
		return Row{Err: errors.New("query row not implemented")}
	}
	return s.QueryRowFunc(ctx, sql, args...)
}

// Tag builds a command tag reporting n affected rows.
func Tag(verb string, n int) pgconn.CommandTag {
	if verb == "INSERT" {
		return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", n))
	}
	return pgconn.NewCommandTag(fmt.Sprintf("%s %d", verb, n))
}

type Rows struct {
	Data [][]any
	Fail error
	idx  int
}

func (r *Rows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return errors.New("no current row to scan")
	}
	return assign(dest, r.Data[r.idx-1])
}

func (r *Rows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.Data) {
		return nil, errors.New("no current row")
	}
	return r.Data[r.idx-1], nil
}

func (r *Rows) RawValues() [][]byte { return nil }
func (r *Rows) Err() error          { return r.Fail }
func (r *Rows) Close()              {}
func (r *Rows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

// Row returns Values on Scan, or Err when set.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

func assign(dest []any, row []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		ptr := reflect.ValueOf(target)
		if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
			return fmt.Errorf("scan target %d is not a pointer", i)
		}
		elem := ptr.Elem()
		if row[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		val := reflect.ValueOf(row[i])
		switch {
		case val.Type().AssignableTo(elem.Type()):
			elem.Set(val)
		case val.Type().ConvertibleTo(elem.Type()):
			elem.Set(val.Convert(elem.Type()))
		default:
			return fmt.Errorf("cannot scan %T into %s", row[i], elem.Type())
		}
	}
	return nil
}
