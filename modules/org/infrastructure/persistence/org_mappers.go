package persistence

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence/models"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}

func toDBUnit(u *orgunit.Unit) *models.OrgUnit {
	return &models.OrgUnit{
		ID:        pgUUID(u.ID),
		Code:      u.Code,
		Name:      u.Name,
		ParentID:  pgUUIDPtr(u.ParentID),
		Layer:     int16(u.Layer),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func toDomainUnit(row *models.OrgUnit) orgunit.Unit {
	u := orgunit.Unit{
		ID:        uuid.UUID(row.ID.Bytes),
		Code:      row.Code,
		Name:      row.Name,
		Layer:     orgunit.Layer(row.Layer),
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}
	if row.ParentID.Valid {
		parent := uuid.UUID(row.ParentID.Bytes)
		u.ParentID = &parent
	}
	return u
}

func toDBUser(u *staff.User) *models.User {
	return &models.User{
		ID:           pgUUID(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		UnitID:       pgUUID(u.UnitID),
		Layer:        int16(u.Layer),
		Role:         string(u.Role),
		Active:       u.Active,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomainUser(row *models.User, grants []models.UserGrant) *staff.User {
	u := &staff.User{
		ID:           uuid.UUID(row.ID.Bytes),
		Username:     row.Username,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		UnitID:       uuid.UUID(row.UnitID.Bytes),
		Layer:        orgunit.Layer(row.Layer),
		Role:         staff.Role(row.Role),
		Active:       row.Active,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	for _, g := range grants {
		u.Grants = append(u.Grants, staff.Grant{UnitID: uuid.UUID(g.UnitID.Bytes), Delegate: g.Delegate})
	}
	return u
}
