package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const userColumns = `id, username, email, first_name, last_name, unit_id, layer, role,
	active, password_hash, created_at, updated_at`

type UserRepository struct{}

func NewUserRepository() staff.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*staff.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, pgUUID(id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*staff.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*staff.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.User
	if err := scanUser(tx.QueryRow(ctx, query, arg), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("user", err)
		}
		return nil, errors.Wrap(err, "get user")
	}
	grants, err := r.grants(ctx, tx, []uuid.UUID{uuid.UUID(row.ID.Bytes)})
	if err != nil {
		return nil, err
	}
	return toDomainUser(&row, grants[uuid.UUID(row.ID.Bytes)]), nil
}

func (r *UserRepository) List(ctx context.Context, params *staff.FindParams) ([]*staff.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var where []string
	var args []any
	query := `SELECT ` + userColumns + ` FROM users`
	if params != nil {
		if len(params.UnitIDs) > 0 {
			args = append(args, params.UnitIDs)
			where = append(where, fmt.Sprintf("unit_id = ANY($%d)", len(args)))
		}
		if params.ActiveOnly {
			where = append(where, "active")
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY username"
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	var dbUsers []models.User
	for rows.Next() {
		var row models.User
		if err := scanUser(rows, &row); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan user")
		}
		dbUsers = append(dbUsers, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(dbUsers))
	for i := range dbUsers {
		ids[i] = uuid.UUID(dbUsers[i].ID.Bytes)
	}
	grants, err := r.grants(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	users := make([]*staff.User, len(dbUsers))
	for i := range dbUsers {
		users[i] = toDomainUser(&dbUsers[i], grants[ids[i]])
	}
	return users, nil
}

func (r *UserRepository) grants(ctx context.Context, tx repo.Tx, userIDs []uuid.UUID) (map[uuid.UUID][]models.UserGrant, error) {
	out := make(map[uuid.UUID][]models.UserGrant, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := tx.Query(ctx,
		`SELECT user_id, unit_id, delegate FROM user_grants WHERE user_id = ANY($1) ORDER BY created_at`,
		userIDs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query user grants")
	}
	defer rows.Close()
	for rows.Next() {
		var g models.UserGrant
		if err := rows.Scan(&g.UserID, &g.UnitID, &g.Delegate); err != nil {
			return nil, errors.Wrap(err, "scan user grant")
		}
		id := uuid.UUID(g.UserID.Bytes)
		out[id] = append(out[id], g)
	}
	return out, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user *staff.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBUser(user)
	if err := tx.QueryRow(
		ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, unit_id, layer, role, active, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		row.ID, row.Username, row.Email, row.FirstName, row.LastName,
		row.UnitID, row.Layer, row.Role, row.Active, row.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return errors.Wrap(err, "insert user")
	}
	for _, g := range user.Grants {
		if err := r.AddGrant(ctx, user.ID, g); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) UpdateAssignment(ctx context.Context, id, unitID uuid.UUID, layer orgunit.Layer) error {
	return r.exec(ctx, "update user assignment",
		`UPDATE users SET unit_id = $2, layer = $3, updated_at = now() WHERE id = $1`,
		pgUUID(id), pgUUID(unitID), int16(layer),
	)
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.exec(ctx, "set user active",
		`UPDATE users SET active = $2, updated_at = now() WHERE id = $1`,
		pgUUID(id), active,
	)
}

func (r *UserRepository) AddGrant(ctx context.Context, id uuid.UUID, grant staff.Grant) error {
	return r.exec(ctx, "insert user grant",
		`INSERT INTO user_grants (user_id, unit_id, delegate) VALUES ($1, $2, $3)`,
		pgUUID(id), pgUUID(grant.UnitID), grant.Delegate,
	)
}

func (r *UserRepository) RemoveGrant(ctx context.Context, id, unitID uuid.UUID) error {
	return r.exec(ctx, "delete user grant",
		`DELETE FROM user_grants WHERE user_id = $1 AND unit_id = $2`,
		pgUUID(id), pgUUID(unitID),
	)
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if tag.RowsAffected() == 0 {
		return serrors.NotFound("user", nil)
	}
	return nil
}

func scanUser(row pgx.Row, dst *models.User) error {
	return row.Scan(
		&dst.ID, &dst.Username, &dst.Email, &dst.FirstName, &dst.LastName,
		&dst.UnitID, &dst.Layer, &dst.Role, &dst.Active, &dst.PasswordHash,
		&dst.CreatedAt, &dst.UpdatedAt,
	)
}
