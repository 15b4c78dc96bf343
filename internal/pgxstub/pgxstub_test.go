package pgxstub

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type code string

func TestRows_ScanAssignsAndConverts(t *testing.T) {
	id := uuid.New()
	rows := &Rows{Data: [][]any{{id, "lead", nil}}}
	require.True(t, rows.Next())

	var (
		gotID  uuid.UUID
		stage  code
		parent *uuid.UUID
	)
	require.NoError(t, rows.Scan(&gotID, &stage, &parent))
	require.Equal(t, id, gotID)
	require.Equal(t, code("lead"), stage)
	require.Nil(t, parent)
	require.False(t, rows.Next())
}

func TestRow_ScanErrors(t *testing.T) {
	var n int
	require.Error(t, Row{Values: []any{"x"}}.Scan(&n))
	require.Error(t, Row{Values: []any{1, 2}}.Scan(&n))
	require.Error(t, (&Tx{}).QueryRow(context.Background(), "SELECT 1").Scan(&n))
}

func TestTag(t *testing.T) {
	require.Equal(t, int64(1), Tag("UPDATE", 1).RowsAffected())
	require.Equal(t, int64(2), Tag("INSERT", 2).RowsAffected())
}
