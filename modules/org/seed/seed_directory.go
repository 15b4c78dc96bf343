package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// UnitSpec describes one unit of the default directory.
type UnitSpec struct {
	Code   string
	Name   string
	Parent string
	Layer  orgunit.Layer
}

// UserSpec describes one default account.
type UserSpec struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Unit      string
	Layer     orgunit.Layer
	Role      staff.Role
}

var DefaultUnits = []UnitSpec{
	{Code: "UB", Name: "Universal Bank", Layer: orgunit.LayerExecutive},
	{Code: "SAR", Name: "Sarajevo Region", Parent: "UB", Layer: orgunit.LayerRegional},
	{Code: "SAR-CNT", Name: "Centar Branch", Parent: "SAR", Layer: orgunit.LayerBranch},
	{Code: "SAR-CNT-RM1", Name: "Centar Relationship Desk 1", Parent: "SAR-CNT", Layer: orgunit.LayerIndividual},
}

var DefaultUsers = []UserSpec{
	{Username: "admin", Password: "admin123", FirstName: "Admin", LastName: "User", Unit: "UB", Layer: orgunit.LayerExecutive, Role: staff.RoleAdmin},
	{Username: "regional", Password: "regional123", FirstName: "Amir", LastName: "Kovačević", Unit: "SAR", Layer: orgunit.LayerRegional, Role: staff.RoleManager},
	{Username: "branch", Password: "branch123", FirstName: "Selma", LastName: "Hadžić", Unit: "SAR-CNT", Layer: orgunit.LayerBranch, Role: staff.RoleManager},
	{Username: "rm1", Password: "rm123", FirstName: "Marko", LastName: "Petrović", Unit: "SAR-CNT-RM1", Layer: orgunit.LayerIndividual, Role: staff.RoleSales},
}

// Directory creates the default units and accounts. Existing rows are left
// untouched so the seed can be run repeatedly.
type Directory struct {
	Units  orgunit.Repository
	Users  staff.Repository
	Logger *logrus.Logger
	Now    func() time.Time
}

func (s *Directory) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Directory) log() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger().WithField("component", "seed")
	}
	return s.Logger.WithField("component", "seed")
}

func (s *Directory) SeedUnits(ctx context.Context, specs []UnitSpec) error {
	for _, spec := range specs {
		if _, err := s.Units.GetByCode(ctx, spec.Code); err == nil {
			s.log().WithField("code", spec.Code).Info("org unit already exists")
			continue
		} else if !errors.Is(err, serrors.ErrNotFound) {
			return err
		}

		unit := orgunit.Unit{
			ID:        uuid.New(),
			Code:      spec.Code,
			Name:      spec.Name,
			Layer:     spec.Layer,
			Active:    true,
			CreatedAt: s.now(),
		}
		if spec.Parent != "" {
			parent, err := s.Units.GetByCode(ctx, spec.Parent)
			if err != nil {
				return fmt.Errorf("parent of %s: %w", spec.Code, err)
			}
			unit.ParentID = &parent.ID
		}
		if err := s.Units.Create(ctx, &unit); err != nil {
			return fmt.Errorf("create unit %s: %w", spec.Code, err)
		}
		s.log().WithField("code", spec.Code).Info("created org unit")
	}
	return nil
}

func (s *Directory) SeedUsers(ctx context.Context, specs []UserSpec) error {
	for _, spec := range specs {
		if _, err := s.Users.GetByUsername(ctx, spec.Username); err == nil {
			s.log().WithField("username", spec.Username).Info("user already exists")
			continue
		} else if !errors.Is(err, serrors.ErrNotFound) {
			return err
		}

		unit, err := s.Units.GetByCode(ctx, spec.Unit)
		if err != nil {
			return fmt.Errorf("unit of %s: %w", spec.Username, err)
		}
		now := s.now()
		user := &staff.User{
			ID:        uuid.New(),
			Username:  spec.Username,
			Email:     spec.Username + "@universalbank.ba",
			FirstName: spec.FirstName,
			LastName:  spec.LastName,
			UnitID:    unit.ID,
			Layer:     spec.Layer,
			Role:      spec.Role,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := user.SetPassword(spec.Password); err != nil {
			return err
		}
		if err := s.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", spec.Username, err)
		}
		s.log().WithFields(logrus.Fields{"username": spec.Username, "layer": spec.Layer.String()}).Info("created user")
	}
	return nil
}
