package models

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type OrgUnit struct {
	ID        pgtype.UUID
	Code      string
	Name      string
	ParentID  pgtype.UUID
	Layer     int16
	Active    bool
	CreatedAt time.Time
}

type User struct {
	ID           pgtype.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	UnitID       pgtype.UUID
	Layer        int16
	Role         string
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserGrant struct {
	UserID   pgtype.UUID
	UnitID   pgtype.UUID
	Delegate bool
}
