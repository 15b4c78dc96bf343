package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// PgDirectory answers directory questions straight from org_units on every
// call, so access decisions always see the latest structure.
type PgDirectory struct {
	units *UnitRepository
}

func NewPgDirectory() *PgDirectory {
	return &PgDirectory{units: &UnitRepository{}}
}

func (d *PgDirectory) Lookup(ctx context.Context, id uuid.UUID) (orgunit.Unit, error) {
	return d.units.GetByID(ctx, id)
}

// AncestorsOf returns the chain from the root down to the unit's parent.
func (d *PgDirectory) AncestorsOf(ctx context.Context, id uuid.UUID) ([]orgunit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT `+unitColumns+`, 0 AS depth FROM org_units WHERE id = $1
			UNION ALL
			SELECT p.id, p.code, p.name, p.parent_id, p.layer, p.active, p.created_at, c.depth + 1
			FROM org_units p JOIN chain c ON p.id = c.parent_id
		)
		SELECT `+unitColumns+` FROM chain ORDER BY depth DESC`, pgUUID(id))
	if err != nil {
		return nil, errors.Wrap(err, "query ancestors")
	}
	defer rows.Close()

	chain, err := collectUnits(rows)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, serrors.NotFound("org unit "+id.String(), nil)
	}
	return chain[:len(chain)-1], nil
}

// SubtreeOf returns the unit and all of its descendants, nearest first.
func (d *PgDirectory) SubtreeOf(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		WITH RECURSIVE sub AS (
			SELECT id, 0 AS depth FROM org_units WHERE id = $1
			UNION ALL
			SELECT u.id, s.depth + 1 FROM org_units u JOIN sub s ON u.parent_id = s.id
		)
		SELECT id FROM sub ORDER BY depth, id`, pgUUID(id))
	if err != nil {
		return nil, errors.Wrap(err, "query subtree")
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, serrors.NotFound("org unit "+id.String(), nil)
	}
	return ids, nil
}

func (d *PgDirectory) AllUnitIDs(ctx context.Context) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT id FROM org_units ORDER BY layer, code`)
	if err != nil {
		return nil, errors.Wrap(err, "query unit ids")
	}
	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan unit id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
