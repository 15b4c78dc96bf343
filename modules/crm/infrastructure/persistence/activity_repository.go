package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const activityColumns = `id, type, subject, description, customer_id, opportunity_id, occurred_at,
	outcome, owner_id, owning_unit_id, sensitive, created_at`

type ActivityRepository struct{}

func NewActivityRepository() activity.Repository {
	return &ActivityRepository{}
}

func scanActivity(s scanner, row *models.Activity) error {
	return s.Scan(
		&row.ID, &row.Type, &row.Subject, &row.Description, &row.CustomerID, &row.OpportunityID,
		&row.OccurredAt, &row.Outcome, &row.OwnerID, &row.OwningUnitID, &row.Sensitive, &row.CreatedAt,
	)
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Activity
	if err := scanActivity(tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, pgUUID(id)), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("activity", err)
		}
		return nil, errors.Wrap(err, "get activity")
	}
	return toDomainActivity(&row), nil
}

func buildActivityFilters(params *activity.FindParams) ([]string, []any, error) {
	if params == nil {
		return nil, nil, repo.ErrMissingScope
	}
	where, args, err := repo.AppendScope(nil, nil, params.Scope, "owning_unit_id")
	if err != nil {
		return nil, nil, err
	}
	if params.CustomerID != nil {
		args = append(args, pgUUID(*params.CustomerID))
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if params.OpportunityID != nil {
		args = append(args, pgUUID(*params.OpportunityID))
		where = append(where, fmt.Sprintf("opportunity_id = $%d", len(args)))
	}
	if params.Type != "" {
		args = append(args, string(params.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	return where, args, nil
}

func (r *ActivityRepository) List(ctx context.Context, params *activity.FindParams) ([]*activity.Activity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := buildActivityFilters(params)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + activityColumns + ` FROM activities` + whereClause(where) +
		` ORDER BY occurred_at DESC, id ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query activities")
	}
	defer rows.Close()

	var out []*activity.Activity
	for rows.Next() {
		var row models.Activity
		if err := scanActivity(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		out = append(out, toDomainActivity(&row))
	}
	return out, rows.Err()
}

func (r *ActivityRepository) Count(ctx context.Context, params *activity.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := buildActivityFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM activities`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count activities")
	}
	return count, nil
}

func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBActivity(a)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO activities (`+activityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		row.ID, row.Type, row.Subject, row.Description, row.CustomerID, row.OpportunityID,
		row.OccurredAt, row.Outcome, row.OwnerID, row.OwningUnitID, row.Sensitive, row.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "insert activity")
	}
	return nil
}
