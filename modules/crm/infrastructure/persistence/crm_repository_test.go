package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/pgxstub"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type unitScope []uuid.UUID

func (s unitScope) Clause(column string, argPos int) (string, []any) {
	if s == nil {
		return "", nil
	}
	return fmt.Sprintf("%s = ANY($%d)", column, argPos), []any{[]uuid.UUID(s)}
}

func withTx(tx *pgxstub.Tx) context.Context {
	return composables.WithTx(context.Background(), tx)
}

func customerRow(c *customer.Customer) []any {
	row := toDBCustomer(c)
	return []any{
		row.ID, row.FirstName, row.LastName, row.CompanyName, row.Email, row.Phone, row.City,
		row.Segment, row.Stage, row.SuspectAt, row.ProspectAt, row.LeadAt, row.CustomerAt,
		row.AccountNumber, row.EstimatedAssets, row.HighNetWorth, row.QualificationScore,
		row.OwnerID, row.OwningUnitID, row.LastContactAt, row.Version, row.CreatedAt, row.UpdatedAt,
	}
}

func TestCustomerRepository_ListRequiresScope(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			t.Fatal("query must not run without a scope")
			return nil, nil
		},
	}
	_, err := NewCustomerRepository().List(withTx(tx), &customer.FindParams{})
	require.ErrorIs(t, err, repo.ErrMissingScope)
	_, err = NewCustomerRepository().Count(withTx(tx), nil)
	require.ErrorIs(t, err, repo.ErrMissingScope)
}

func TestCustomerRepository_ListScoped(t *testing.T) {
	unit := uuid.New()
	c := customer.New(uuid.New(), unit, time.Unix(100, 0).UTC())
	c.FirstName = "Ana"
	c.EstimatedAssets = decimal.RequireFromString("1250000.50")
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "WHERE owning_unit_id = ANY($1) AND stage = $2 AND (first_name ILIKE $3")
			require.Contains(t, sql, "LIMIT 20")
			require.Equal(t, []uuid.UUID{unit}, args[0])
			require.Equal(t, "suspect", args[1])
			require.Equal(t, "%ana%", args[2])
			return &pgxstub.Rows{Data: [][]any{customerRow(c)}}, nil
		},
	}
	items, err := NewCustomerRepository().List(withTx(tx), &customer.FindParams{
		Scope: unitScope{unit},
		Stage: customer.StageSuspect,
		Query: " ana ",
		Limit: 20,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, c.ID, items[0].ID)
	require.Equal(t, "1250000.5", items[0].EstimatedAssets.String())
	require.NotNil(t, items[0].StageDates.SuspectAt)
}

func TestCustomerRepository_UnboundedScopeHasNoFilter(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Equal(t, "SELECT COUNT(*) FROM customers", sql)
			return pgxstub.Row{Values: []any{int64(7)}}
		},
	}
	n, err := NewCustomerRepository().Count(withTx(tx), &customer.FindParams{Scope: unitScope(nil)})
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
}

func TestCustomerRepository_UpdateChecksVersion(t *testing.T) {
	c := customer.New(uuid.New(), uuid.New(), time.Now().UTC())
	affected := 0
	tx := &pgxstub.Tx{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "WHERE id = $1 AND version = $2")
			require.Contains(t, sql, "version = version + 1")
			require.Equal(t, int32(1), args[1])
			return pgxstub.Tag("UPDATE", affected), nil
		},
	}
	r := NewCustomerRepository()
	err := r.Update(withTx(tx), c)
	require.ErrorIs(t, err, serrors.ErrConcurrentModification)
	require.Equal(t, 1, c.Version)

	affected = 1
	require.NoError(t, r.Update(withTx(tx), c))
	require.Equal(t, 2, c.Version)
}

func TestCustomerRepository_GetByIDNotFound(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgxstub.Row{Err: pgx.ErrNoRows}
		},
	}
	_, err := NewCustomerRepository().GetByID(withTx(tx), uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestCustomerRepository_CountByStage(t *testing.T) {
	unit := uuid.New()
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "WHERE owning_unit_id = ANY($1) GROUP BY stage")
			return &pgxstub.Rows{Data: [][]any{{"lead", int64(3)}, {"customer", int64(1)}}}, nil
		},
	}
	counts, err := NewCustomerRepository().CountByStage(withTx(tx), unitScope{unit})
	require.NoError(t, err)
	require.EqualValues(t, 3, counts[customer.StageLead])
	require.EqualValues(t, 0, counts[customer.StageProspect])
}

func TestOpportunityRepository_PipelineByStage(t *testing.T) {
	unit := uuid.New()
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "owning_unit_id = ANY($1) AND stage = ANY($2)")
			require.NotContains(t, sql, "FILTER")
			require.Equal(t, openStageArgs(), args[1])
			return &pgxstub.Rows{Data: [][]any{
				{"proposal", int64(2), int64(0), decimal.NewFromInt(1500), decimal.NewFromInt(600)},
			}}, nil
		},
	}
	totals, err := NewOpportunityRepository().PipelineByStage(withTx(tx), unitScope{unit}, false)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.Equal(t, opportunity.StageProposal, totals[0].Stage)
	require.True(t, decimal.NewFromInt(600).Equal(totals[0].ExpectedRevenue))

	_, err = NewOpportunityRepository().PipelineByStage(withTx(tx), nil, false)
	require.ErrorIs(t, err, repo.ErrMissingScope)
}

func TestOpportunityRepository_PipelineByStageWithholdsSensitive(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "COUNT(*) FILTER (WHERE sensitive)")
			require.Contains(t, sql, "SUM(amount) FILTER (WHERE NOT sensitive)")
			require.Contains(t, sql, "SUM(amount * probability / 100) FILTER (WHERE NOT sensitive)")
			return &pgxstub.Rows{Data: [][]any{
				{"proposal", int64(3), int64(1), decimal.NewFromInt(1500), decimal.NewFromInt(600)},
			}}, nil
		},
	}
	totals, err := NewOpportunityRepository().PipelineByStage(withTx(tx), unitScope{uuid.New()}, true)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.EqualValues(t, 3, totals[0].Count)
	require.EqualValues(t, 1, totals[0].Withheld)
	require.True(t, decimal.NewFromInt(1500).Equal(totals[0].Amount))
}

func TestOpportunityRepository_ClosedSince(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FILTER (WHERE won_at >= $2)")
			require.Contains(t, sql, "WHERE owning_unit_id = ANY($1)")
			require.Equal(t, since, args[1])
			return pgxstub.Row{Values: []any{int64(4), int64(6)}}
		},
	}
	won, lost, err := NewOpportunityRepository().ClosedSince(withTx(tx), unitScope{uuid.New()}, since)
	require.NoError(t, err)
	require.EqualValues(t, 4, won)
	require.EqualValues(t, 6, lost)
}

func TestActivityRepository_ListFilters(t *testing.T) {
	customerID := uuid.New()
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "WHERE owning_unit_id = ANY($1) AND customer_id = $2 AND type = $3")
			require.Contains(t, sql, "ORDER BY occurred_at DESC")
			require.Equal(t, "call", args[2])
			return &pgxstub.Rows{}, nil
		},
	}
	items, err := NewActivityRepository().List(withTx(tx), &activity.FindParams{
		Scope:      unitScope{uuid.New()},
		CustomerID: &customerID,
		Type:       activity.TypeCall,
	})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestTargetRepository_RecordAchievementIncrements(t *testing.T) {
	targetID := uuid.New()
	var inserted bool
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "achieved_value = achieved_value + $2")
			require.Contains(t, sql, "RETURNING achieved_value")
			require.True(t, decimal.NewFromInt(50).Equal(args[1].(decimal.Decimal)))
			return pgxstub.Row{Values: []any{decimal.NewFromInt(150)}}
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "INSERT INTO target_achievements")
			inserted = true
			return pgxstub.Tag("INSERT", 1), nil
		},
	}
	got, err := NewTargetRepository().RecordAchievement(withTx(tx), &target.Achievement{
		ID:         uuid.New(),
		TargetID:   targetID,
		Value:      decimal.NewFromInt(50),
		AchievedAt: time.Now().UTC(),
		RecordedBy: uuid.New(),
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(150).Equal(got))
	require.True(t, inserted)
}

func TestTargetRepository_RecordAchievementUnknownTarget(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgxstub.Row{Err: pgx.ErrNoRows}
		},
	}
	_, err := NewTargetRepository().RecordAchievement(withTx(tx), &target.Achievement{TargetID: uuid.New(), Value: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, serrors.ErrNotFound)
}
