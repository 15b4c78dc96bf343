package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const opportunityColumns = `id, name, customer_id, product_line, stage, amount, probability,
	expected_close_date, won_at, lost_at, lost_reason, competitor, owner_id, owning_unit_id,
	sensitive, version, created_at, updated_at`

type OpportunityRepository struct{}

func NewOpportunityRepository() opportunity.Repository {
	return &OpportunityRepository{}
}

func scanOpportunity(s scanner, row *models.Opportunity) error {
	return s.Scan(
		&row.ID, &row.Name, &row.CustomerID, &row.ProductLine, &row.Stage, &row.Amount, &row.Probability,
		&row.ExpectedCloseDate, &row.WonAt, &row.LostAt, &row.LostReason, &row.Competitor,
		&row.OwnerID, &row.OwningUnitID, &row.Sensitive, &row.Version, &row.CreatedAt, &row.UpdatedAt,
	)
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Opportunity
	if err := scanOpportunity(tx.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, pgUUID(id)), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("opportunity", err)
		}
		return nil, errors.Wrap(err, "get opportunity")
	}
	return toDomainOpportunity(&row), nil
}

func openStageArgs() []string {
	out := make([]string, len(opportunity.OpenStages))
	for i, s := range opportunity.OpenStages {
		out[i] = string(s)
	}
	return out
}

func buildOpportunityFilters(params *opportunity.FindParams) ([]string, []any, error) {
	if params == nil {
		return nil, nil, repo.ErrMissingScope
	}
	where, args, err := repo.AppendScope(nil, nil, params.Scope, "owning_unit_id")
	if err != nil {
		return nil, nil, err
	}
	if params.Stage != "" {
		args = append(args, string(params.Stage))
		where = append(where, fmt.Sprintf("stage = $%d", len(args)))
	}
	if params.CustomerID != nil {
		args = append(args, pgUUID(*params.CustomerID))
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if params.OwnerID != nil {
		args = append(args, pgUUID(*params.OwnerID))
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if params.OpenOnly {
		args = append(args, openStageArgs())
		where = append(where, fmt.Sprintf("stage = ANY($%d)", len(args)))
	}
	return where, args, nil
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func (r *OpportunityRepository) List(ctx context.Context, params *opportunity.FindParams) ([]*opportunity.Opportunity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := buildOpportunityFilters(params)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + opportunityColumns + ` FROM opportunities` + whereClause(where) +
		` ORDER BY created_at DESC, id ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query opportunities")
	}
	defer rows.Close()

	var out []*opportunity.Opportunity
	for rows.Next() {
		var row models.Opportunity
		if err := scanOpportunity(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan opportunity")
		}
		out = append(out, toDomainOpportunity(&row))
	}
	return out, rows.Err()
}

func (r *OpportunityRepository) Count(ctx context.Context, params *opportunity.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := buildOpportunityFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM opportunities`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count opportunities")
	}
	return count, nil
}

func (r *OpportunityRepository) Create(ctx context.Context, o *opportunity.Opportunity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBOpportunity(o)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO opportunities (`+opportunityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		row.ID, row.Name, row.CustomerID, row.ProductLine, row.Stage, row.Amount, row.Probability,
		row.ExpectedCloseDate, row.WonAt, row.LostAt, row.LostReason, row.Competitor,
		row.OwnerID, row.OwningUnitID, row.Sensitive, row.Version, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "insert opportunity")
	}
	return nil
}

func (r *OpportunityRepository) Update(ctx context.Context, o *opportunity.Opportunity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBOpportunity(o)
	tag, err := tx.Exec(
		ctx,
		`UPDATE opportunities SET
			name = $3, product_line = $4, stage = $5, amount = $6, probability = $7,
			expected_close_date = $8, won_at = $9, lost_at = $10, lost_reason = $11, competitor = $12,
			owner_id = $13, owning_unit_id = $14, sensitive = $15, updated_at = $16, version = version + 1
		 WHERE id = $1 AND version = $2`,
		row.ID, row.Version, row.Name, row.ProductLine, row.Stage, row.Amount, row.Probability,
		row.ExpectedCloseDate, row.WonAt, row.LostAt, row.LostReason, row.Competitor,
		row.OwnerID, row.OwningUnitID, row.Sensitive, row.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update opportunity")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ConcurrentModification("opportunity")
	}
	o.Version++
	return nil
}

func (r *OpportunityRepository) PipelineByStage(ctx context.Context, scope repo.UnitScope, withholdSensitive bool) ([]opportunity.StageTotal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := repo.AppendScope(nil, nil, scope, "owning_unit_id")
	if err != nil {
		return nil, err
	}
	args = append(args, openStageArgs())
	where = append(where, fmt.Sprintf("stage = ANY($%d)", len(args)))

	withheld, sumFilter := "0", ""
	if withholdSensitive {
		withheld, sumFilter = "COUNT(*) FILTER (WHERE sensitive)", " FILTER (WHERE NOT sensitive)"
	}
	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT stage, COUNT(*), %s,
			COALESCE(SUM(amount)%s, 0), COALESCE(SUM(amount * probability / 100)%s, 0)
		 FROM opportunities`, withheld, sumFilter, sumFilter)+whereClause(where)+` GROUP BY stage`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query pipeline")
	}
	defer rows.Close()

	var out []opportunity.StageTotal
	for rows.Next() {
		var stage string
		var t opportunity.StageTotal
		if err := rows.Scan(&stage, &t.Count, &t.Withheld, &t.Amount, &t.ExpectedRevenue); err != nil {
			return nil, errors.Wrap(err, "scan pipeline stage")
		}
		t.Stage = opportunity.Stage(stage)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *OpportunityRepository) ClosedSince(ctx context.Context, scope repo.UnitScope, since time.Time) (int64, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, err
	}
	where, args, err := repo.AppendScope(nil, nil, scope, "owning_unit_id")
	if err != nil {
		return 0, 0, err
	}
	args = append(args, since)
	n := len(args)
	var won, lost int64
	if err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT
			COUNT(*) FILTER (WHERE won_at >= $%d),
			COUNT(*) FILTER (WHERE lost_at >= $%d)
		 FROM opportunities`, n, n)+whereClause(where),
		args...,
	).Scan(&won, &lost); err != nil {
		return 0, 0, errors.Wrap(err, "count closed opportunities")
	}
	return won, lost, nil
}

