package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/logging/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

const auditColumns = `id, actor_id, actor_username, action, resource_type, resource_id,
	owning_unit_id, decision, reason, request_id, created_at`

// AuditRecordRepository is insert-only; there is no update or delete path.
type AuditRecordRepository struct{}

func NewAuditRecordRepository() auditrecord.Repository {
	return &AuditRecordRepository{}
}

// Append writes on the pool when one is available, so a record survives
// the rollback of the business transaction it decided on.
func (r *AuditRecordRepository) Append(ctx context.Context, record *auditrecord.AuditRecord) error {
	if record == nil {
		return errors.New("audit record is required")
	}
	tx, err := appendTx(ctx)
	if err != nil {
		return err
	}

	row := toDBAuditRecord(record)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO audit_records (actor_id, actor_username, action, resource_type, resource_id,
			owning_unit_id, decision, reason, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		row.ActorID,
		row.ActorUsername,
		row.Action,
		row.ResourceType,
		row.ResourceID,
		row.OwningUnitID,
		row.Decision,
		row.Reason,
		row.RequestID,
		row.CreatedAt,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return errors.Wrap(err, "insert audit record")
	}
	return nil
}

func appendTx(ctx context.Context) (repo.Tx, error) {
	if pool, err := composables.UsePool(ctx); err == nil {
		return pool, nil
	}
	return composables.UseTx(ctx)
}

func (r *AuditRecordRepository) List(ctx context.Context, params *auditrecord.FindParams) ([]*auditrecord.AuditRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildAuditFilters(params)
	query := `SELECT ` + auditColumns + ` FROM audit_records` + where + ` ORDER BY created_at DESC, id DESC`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query audit records")
	}
	defer rows.Close()

	var results []*auditrecord.AuditRecord
	for rows.Next() {
		var row models.AuditRecord
		if err := rows.Scan(
			&row.ID,
			&row.ActorID,
			&row.ActorUsername,
			&row.Action,
			&row.ResourceType,
			&row.ResourceID,
			&row.OwningUnitID,
			&row.Decision,
			&row.Reason,
			&row.RequestID,
			&row.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan audit record")
		}
		results = append(results, toDomainAuditRecord(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AuditRecordRepository) Count(ctx context.Context, params *auditrecord.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildAuditFilters(params)

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM audit_records`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count audit records")
	}
	return count, nil
}

func buildAuditFilters(params *auditrecord.FindParams) (string, []any) {
	if params == nil {
		return "", nil
	}
	var where []string
	var args []any
	argPos := 1

	if params.Scope != nil {
		if clause, scopeArgs := params.Scope.Clause("owning_unit_id", argPos); clause != "" {
			where = append(where, clause)
			args = append(args, scopeArgs...)
			argPos += len(scopeArgs)
		}
	}
	if params.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argPos))
		args = append(args, params.ActorID.String())
		argPos++
	}
	if rt := strings.TrimSpace(params.ResourceType); rt != "" {
		where = append(where, fmt.Sprintf("resource_type = $%d", argPos))
		args = append(args, rt)
		argPos++
	}
	if id := strings.TrimSpace(params.ResourceID); id != "" {
		where = append(where, fmt.Sprintf("resource_id = $%d", argPos))
		args = append(args, id)
		argPos++
	}
	if params.Decision != "" {
		where = append(where, fmt.Sprintf("decision = $%d", argPos))
		args = append(args, string(params.Decision))
		argPos++
	}
	if params.From != nil && !params.From.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *params.From)
		argPos++
	}
	if params.To != nil && !params.To.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *params.To)
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}
