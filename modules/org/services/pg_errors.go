package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return serrors.NotFound("record", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "org_units_code_key":
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "unit code already exists", err)
		case "org_units_single_root":
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "root already exists", err)
		case "users_username_key":
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "username already exists", err)
		default:
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		return serrors.Validation("referenced unit or user does not exist", err)
	case "23514": // check_violation
		return serrors.Validation(fmt.Sprintf("constraint %s violated", pgErr.ConstraintName), err)
	default:
		return serrors.NewServiceError(http.StatusInternalServerError, serrors.CodeInternal, fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
