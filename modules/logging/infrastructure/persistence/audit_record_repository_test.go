package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/pgxstub"
	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
)

type unitScope struct {
	ids []uuid.UUID
}

func (s unitScope) Clause(column string, argPos int) (string, []any) {
	return column + " = ANY($1)", []any{s.ids}
}

func TestAuditRecordRepository_Append(t *testing.T) {
	unitID := uuid.New()
	actorID := uuid.New()
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO audit_records")
			require.Equal(t, actorID.String(), args[0])
			require.Equal(t, "advance_stage", args[2])
			require.Equal(t, pgtype.UUID{Bytes: unitID, Valid: true}, args[5])
			require.Equal(t, "deny", args[6])
			createdAt := args[9].(time.Time)
			require.False(t, createdAt.IsZero())
			return pgxstub.Row{Values: []any{int64(42), createdAt}}
		},
	}
	ctx := composables.WithTx(context.Background(), tx)

	record := &auditrecord.AuditRecord{
		ActorID:      actorID,
		Action:       "advance_stage",
		ResourceType: "customer",
		ResourceID:   uuid.NewString(),
		OwningUnitID: &unitID,
		Decision:     auditrecord.DecisionDeny,
		Reason:       auditrecord.ReasonOutsideScope,
	}
	require.NoError(t, NewAuditRecordRepository().Append(ctx, record))
	require.Equal(t, int64(42), record.ID)
	require.False(t, record.CreatedAt.IsZero())
}

func TestAuditRecordRepository_AppendFailure(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgxstub.Row{Err: errors.New("connection reset")}
		},
	}
	ctx := composables.WithTx(context.Background(), tx)

	err := NewAuditRecordRepository().Append(ctx, &auditrecord.AuditRecord{Decision: auditrecord.DecisionAllow})
	require.ErrorContains(t, err, "connection reset")
	require.Error(t, NewAuditRecordRepository().Append(ctx, nil))
}

func TestAuditRecordRepository_ListAppliesScopeAndFilters(t *testing.T) {
	unitID := uuid.New()
	actorID := uuid.New()
	now := time.Now()
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "owning_unit_id = ANY($1)")
			require.Contains(t, sql, "actor_id = $2")
			require.Contains(t, sql, "decision = $3")
			require.Contains(t, sql, "LIMIT 10")
			require.Equal(t, []uuid.UUID{unitID}, args[0])
			require.Equal(t, "deny", args[2])
			return &pgxstub.Rows{Data: [][]any{{
				int64(1), actorID.String(), "rm1", "view", "customer", "c-1",
				pgtype.UUID{Bytes: unitID, Valid: true}, "deny", "outside_scope", "req-1", now,
			}}}, nil
		},
	}
	ctx := composables.WithTx(context.Background(), tx)

	records, err := NewAuditRecordRepository().List(ctx, &auditrecord.FindParams{
		Scope:    unitScope{ids: []uuid.UUID{unitID}},
		ActorID:  &actorID,
		Decision: auditrecord.DecisionDeny,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, actorID, records[0].ActorID)
	require.Equal(t, unitID, *records[0].OwningUnitID)
	require.Equal(t, auditrecord.DecisionDeny, records[0].Decision)
	require.Equal(t, now, records[0].CreatedAt)
}

func TestAuditRecordRepository_CountWithoutFilters(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Equal(t, "SELECT COUNT(*) FROM audit_records", sql)
			require.Empty(t, args)
			return pgxstub.Row{Values: []any{int64(7)}}
		},
	}
	ctx := composables.WithTx(context.Background(), tx)

	count, err := NewAuditRecordRepository().Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
}
