package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const unitColumns = `id, code, name, parent_id, layer, active, created_at`

type UnitRepository struct{}

func NewUnitRepository() orgunit.Repository {
	return &UnitRepository{}
}

func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (orgunit.Unit, error) {
	return r.getOne(ctx, `SELECT `+unitColumns+` FROM org_units WHERE id = $1`, "org unit "+id.String(), pgUUID(id))
}

func (r *UnitRepository) GetByCode(ctx context.Context, code string) (orgunit.Unit, error) {
	return r.getOne(ctx, `SELECT `+unitColumns+` FROM org_units WHERE code = $1`, "org unit "+code, code)
}

func (r *UnitRepository) getOne(ctx context.Context, query, what string, arg any) (orgunit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return orgunit.Unit{}, err
	}
	var row models.OrgUnit
	if err := scanUnit(tx.QueryRow(ctx, query, arg), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orgunit.Unit{}, serrors.NotFound(what, err)
		}
		return orgunit.Unit{}, errors.Wrap(err, "get org unit")
	}
	return toDomainUnit(&row), nil
}

func (r *UnitRepository) List(ctx context.Context, params *orgunit.FindParams) ([]orgunit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var where []string
	var args []any
	if params != nil {
		if params.Layer != 0 {
			args = append(args, int16(params.Layer))
			where = append(where, fmt.Sprintf("layer = $%d", len(args)))
		}
		if params.ActiveOnly {
			where = append(where, "active")
		}
	}
	query := `SELECT ` + unitColumns + ` FROM org_units`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY layer, code"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query org units")
	}
	defer rows.Close()
	return collectUnits(rows)
}

func (r *UnitRepository) Create(ctx context.Context, unit *orgunit.Unit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBUnit(unit)
	if err := tx.QueryRow(
		ctx,
		`INSERT INTO org_units (id, code, name, parent_id, layer, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		row.ID, row.Code, row.Name, row.ParentID, row.Layer, row.Active,
	).Scan(&unit.CreatedAt); err != nil {
		return errors.Wrap(err, "insert org unit")
	}
	return nil
}

func scanUnit(row pgx.Row, dst *models.OrgUnit) error {
	return row.Scan(&dst.ID, &dst.Code, &dst.Name, &dst.ParentID, &dst.Layer, &dst.Active, &dst.CreatedAt)
}

func collectUnits(rows pgx.Rows) ([]orgunit.Unit, error) {
	var units []orgunit.Unit
	for rows.Next() {
		var row models.OrgUnit
		if err := scanUnit(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan org unit")
		}
		units = append(units, toDomainUnit(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}
