package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const customerColumns = `id, first_name, last_name, company_name, email, phone, city, segment, stage,
	suspect_at, prospect_at, lead_at, customer_at, account_number, estimated_assets, high_net_worth,
	qualification_score, owner_id, owning_unit_id, last_contact_at, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

type CustomerRepository struct{}

func NewCustomerRepository() customer.Repository {
	return &CustomerRepository{}
}

func scanCustomer(s scanner, row *models.Customer) error {
	return s.Scan(
		&row.ID, &row.FirstName, &row.LastName, &row.CompanyName, &row.Email, &row.Phone, &row.City,
		&row.Segment, &row.Stage, &row.SuspectAt, &row.ProspectAt, &row.LeadAt, &row.CustomerAt,
		&row.AccountNumber, &row.EstimatedAssets, &row.HighNetWorth, &row.QualificationScore,
		&row.OwnerID, &row.OwningUnitID, &row.LastContactAt, &row.Version, &row.CreatedAt, &row.UpdatedAt,
	)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Customer
	if err := scanCustomer(tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, pgUUID(id)), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("customer", err)
		}
		return nil, errors.Wrap(err, "get customer")
	}
	return toDomainCustomer(&row), nil
}

func buildCustomerFilters(params *customer.FindParams) (string, []any, error) {
	if params == nil {
		return "", nil, repo.ErrMissingScope
	}
	where, args, err := repo.AppendScope(nil, nil, params.Scope, "owning_unit_id")
	if err != nil {
		return "", nil, err
	}
	if params.Stage != "" {
		args = append(args, string(params.Stage))
		where = append(where, fmt.Sprintf("stage = $%d", len(args)))
	}
	if params.Segment != "" {
		args = append(args, string(params.Segment))
		where = append(where, fmt.Sprintf("segment = $%d", len(args)))
	}
	if params.OwnerID != nil {
		args = append(args, pgUUID(*params.OwnerID))
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR company_name ILIKE $%d OR email ILIKE $%d)", n, n, n, n,
		))
	}
	if len(where) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(where, " AND "), args, nil
}

func (r *CustomerRepository) List(ctx context.Context, params *customer.FindParams) ([]*customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := buildCustomerFilters(params)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY created_at DESC, id ` +
		repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query customers")
	}
	defer rows.Close()

	var out []*customer.Customer
	for rows.Next() {
		var row models.Customer
		if err := scanCustomer(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		out = append(out, toDomainCustomer(&row))
	}
	return out, rows.Err()
}

func (r *CustomerRepository) Count(ctx context.Context, params *customer.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := buildCustomerFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count customers")
	}
	return count, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBCustomer(c)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		row.ID, row.FirstName, row.LastName, row.CompanyName, row.Email, row.Phone, row.City,
		row.Segment, row.Stage, row.SuspectAt, row.ProspectAt, row.LeadAt, row.CustomerAt,
		row.AccountNumber, row.EstimatedAssets, row.HighNetWorth, row.QualificationScore,
		row.OwnerID, row.OwningUnitID, row.LastContactAt, row.Version, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "insert customer")
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBCustomer(c)
	tag, err := tx.Exec(
		ctx,
		`UPDATE customers SET
			first_name = $3, last_name = $4, company_name = $5, email = $6, phone = $7, city = $8,
			segment = $9, stage = $10, suspect_at = $11, prospect_at = $12, lead_at = $13, customer_at = $14,
			account_number = $15, estimated_assets = $16, high_net_worth = $17, qualification_score = $18,
			owner_id = $19, owning_unit_id = $20, updated_at = $21, version = version + 1
		 WHERE id = $1 AND version = $2`,
		row.ID, row.Version, row.FirstName, row.LastName, row.CompanyName, row.Email, row.Phone, row.City,
		row.Segment, row.Stage, row.SuspectAt, row.ProspectAt, row.LeadAt, row.CustomerAt,
		row.AccountNumber, row.EstimatedAssets, row.HighNetWorth, row.QualificationScore,
		row.OwnerID, row.OwningUnitID, row.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update customer")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ConcurrentModification("customer")
	}
	c.Version++
	return nil
}

func (r *CustomerRepository) TouchLastContact(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE customers SET last_contact_at = GREATEST(COALESCE(last_contact_at, $2), $2) WHERE id = $1`,
		pgUUID(id), at,
	)
	if err != nil {
		return errors.Wrap(err, "touch customer last contact")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NotFound("customer", nil)
	}
	return nil
}

func (r *CustomerRepository) CountByStage(ctx context.Context, scope repo.UnitScope) (map[customer.Stage]int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := repo.AppendScope(nil, nil, scope, "owning_unit_id")
	if err != nil {
		return nil, err
	}
	query := `SELECT stage, COUNT(*) FROM customers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY stage"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "count customers by stage")
	}
	defer rows.Close()
	out := make(map[customer.Stage]int64, len(customer.Stages))
	for rows.Next() {
		var stage string
		var n int64
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, errors.Wrap(err, "scan stage count")
		}
		out[customer.Stage(stage)] = n
	}
	return out, rows.Err()
}
