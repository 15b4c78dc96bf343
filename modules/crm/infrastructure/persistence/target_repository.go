package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const targetColumns = `id, name, type, period, start_date, end_date, target_value, achieved_value,
	assignee_id, owning_unit_id, created_by, created_at, updated_at`

type TargetRepository struct{}

func NewTargetRepository() target.Repository {
	return &TargetRepository{}
}

func scanTarget(s scanner, row *models.Target) error {
	return s.Scan(
		&row.ID, &row.Name, &row.Type, &row.Period, &row.StartDate, &row.EndDate, &row.TargetValue,
		&row.AchievedValue, &row.AssigneeID, &row.OwningUnitID, &row.CreatedBy, &row.CreatedAt, &row.UpdatedAt,
	)
}

func (r *TargetRepository) GetByID(ctx context.Context, id uuid.UUID) (*target.Target, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Target
	if err := scanTarget(tx.QueryRow(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = $1`, pgUUID(id)), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("target", err)
		}
		return nil, errors.Wrap(err, "get target")
	}
	return toDomainTarget(&row), nil
}

func buildTargetFilters(params *target.FindParams) ([]string, []any, error) {
	if params == nil {
		return nil, nil, repo.ErrMissingScope
	}
	where, args, err := repo.AppendScope(nil, nil, params.Scope, "owning_unit_id")
	if err != nil {
		return nil, nil, err
	}
	if params.AssigneeID != nil {
		args = append(args, pgUUID(*params.AssigneeID))
		where = append(where, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if params.Type != "" {
		args = append(args, string(params.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.ActiveAt != nil {
		args = append(args, *params.ActiveAt)
		where = append(where, fmt.Sprintf("start_date <= $%d AND end_date >= $%d", len(args), len(args)))
	}
	return where, args, nil
}

func (r *TargetRepository) List(ctx context.Context, params *target.FindParams) ([]*target.Target, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := buildTargetFilters(params)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + targetColumns + ` FROM targets` + whereClause(where) +
		` ORDER BY start_date DESC, id ` + repo.FormatLimitOffset(params.Limit, params.Offset)
	return r.query(ctx, tx, query, args...)
}

func (r *TargetRepository) query(ctx context.Context, tx repo.Tx, query string, args ...any) ([]*target.Target, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query targets")
	}
	defer rows.Close()

	var out []*target.Target
	for rows.Next() {
		var row models.Target
		if err := scanTarget(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan target")
		}
		out = append(out, toDomainTarget(&row))
	}
	return out, rows.Err()
}

func (r *TargetRepository) Count(ctx context.Context, params *target.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := buildTargetFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM targets`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count targets")
	}
	return count, nil
}

func (r *TargetRepository) Create(ctx context.Context, t *target.Target) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBTarget(t)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO targets (`+targetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		row.ID, row.Name, row.Type, row.Period, row.StartDate, row.EndDate, row.TargetValue,
		row.AchievedValue, row.AssigneeID, row.OwningUnitID, row.CreatedBy, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "insert target")
	}
	return nil
}

// RecordAchievement increments achieved_value in the database so that
// concurrent writers never lose an update.
func (r *TargetRepository) RecordAchievement(ctx context.Context, a *target.Achievement) (decimal.Decimal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var achieved decimal.Decimal
	if err := tx.QueryRow(ctx,
		`UPDATE targets SET achieved_value = achieved_value + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING achieved_value`,
		pgUUID(a.TargetID), a.Value,
	).Scan(&achieved); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, serrors.NotFound("target", err)
		}
		return decimal.Zero, errors.Wrap(err, "increment target achievement")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO target_achievements (id, target_id, value, achieved_at, opportunity_id, notes, recorded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgUUID(a.ID), pgUUID(a.TargetID), a.Value, a.AchievedAt, pgUUIDPtr(a.OpportunityID), a.Notes, pgUUID(a.RecordedBy),
	); err != nil {
		return decimal.Zero, errors.Wrap(err, "insert target achievement")
	}
	return achieved, nil
}

func (r *TargetRepository) Achievements(ctx context.Context, targetID uuid.UUID) ([]*target.Achievement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, target_id, value, achieved_at, opportunity_id, notes, recorded_by
		 FROM target_achievements WHERE target_id = $1 ORDER BY achieved_at, id`,
		pgUUID(targetID),
	)
	if err != nil {
		return nil, errors.Wrap(err, "query target achievements")
	}
	defer rows.Close()

	var out []*target.Achievement
	for rows.Next() {
		var row models.TargetAchievement
		if err := rows.Scan(&row.ID, &row.TargetID, &row.Value, &row.AchievedAt, &row.OpportunityID, &row.Notes, &row.RecordedBy); err != nil {
			return nil, errors.Wrap(err, "scan target achievement")
		}
		out = append(out, toDomainAchievement(&row))
	}
	return out, rows.Err()
}

func (r *TargetRepository) ActiveFor(ctx context.Context, assigneeID uuid.UUID, typ target.Type, at time.Time) ([]*target.Target, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, tx,
		`SELECT `+targetColumns+` FROM targets
		 WHERE assignee_id = $1 AND type = $2 AND start_date <= $3 AND end_date >= $3
		 ORDER BY start_date, id`,
		pgUUID(assigneeID), string(typ), at,
	)
}
