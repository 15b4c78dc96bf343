package staff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
)

// Role is the functional role of a staff member. It is informational and
// never widens data visibility.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSales   Role = "sales"
	RoleService Role = "service"
	RoleSupport Role = "support"
	RoleAnalyst Role = "analyst"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleService, RoleSupport, RoleAnalyst, RoleManager:
		return true
	}
	return false
}

// Grant extends visibility to one extra unit, or to its whole subtree when
// Delegate is set.
type Grant struct {
	UnitID   uuid.UUID
	Delegate bool
}

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	UnitID       uuid.UUID
	Layer        orgunit.Layer
	Role         Role
	Grants       []Grant
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetPassword stores a bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// HasGrant reports whether the user already holds a grant for unitID.
func (u *User) HasGrant(unitID uuid.UUID) bool {
	for _, g := range u.Grants {
		if g.UnitID == unitID {
			return true
		}
	}
	return false
}

type FindParams struct {
	UnitIDs    []uuid.UUID
	ActiveOnly bool
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, params *FindParams) ([]*User, error)
	Create(ctx context.Context, user *User) error
	UpdateAssignment(ctx context.Context, id, unitID uuid.UUID, layer orgunit.Layer) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	AddGrant(ctx context.Context, id uuid.UUID, grant Grant) error
	RemoveGrant(ctx context.Context, id, unitID uuid.UUID) error
}
