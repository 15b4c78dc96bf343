package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

var (
	ObjectUnits = authz.ObjectName("org", "units")
	ObjectUsers = authz.ObjectName("org", "users")
)

const (
	resourceUnit = "org_unit"
	resourceUser = "user"
)

type CreateUnitDTO struct {
	Code     string     `json:"code" validate:"required,max=50"`
	Name     string     `json:"name" validate:"required,max=200"`
	ParentID *uuid.UUID `json:"parent_id"`
	Layer    string     `json:"layer" validate:"required,oneof=executive regional branch individual"`
}

func (d *CreateUnitDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.Name = strings.TrimSpace(d.Name)
	d.Layer = strings.ToLower(strings.TrimSpace(d.Layer))
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}

// DirectoryService administers the org tree and staff assignments. Every
// mutation is capability-checked, then audited, then applied; a failed
// audit append leaves the directory untouched.
type DirectoryService struct {
	units      orgunit.Repository
	users      staff.Repository
	authorizer authz.Authorizer
	sink       auditrecord.Sink
	logger     *logrus.Entry
}

func NewDirectoryService(
	units orgunit.Repository,
	users staff.Repository,
	authorizer authz.Authorizer,
	sink auditrecord.Sink,
	logger *logrus.Logger,
) *DirectoryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DirectoryService{
		units:      units,
		users:      users,
		authorizer: authorizer,
		sink:       sink,
		logger:     logger.WithField("component", "org.directory"),
	}
}

func (s *DirectoryService) ListUnits(ctx context.Context, actor *staff.User) ([]orgunit.Unit, error) {
	if err := s.require(ctx, actor, ObjectUnits, "view"); err != nil {
		return nil, err
	}
	units, err := s.units.List(ctx, &orgunit.FindParams{})
	if err != nil {
		return nil, mapPgError(err)
	}
	return units, nil
}

// Hierarchy loads every unit into a validated Tree.
func (s *DirectoryService) Hierarchy(ctx context.Context, actor *staff.User) (*Tree, error) {
	units, err := s.ListUnits(ctx, actor)
	if err != nil {
		return nil, err
	}
	return BuildTree(units)
}

func (s *DirectoryService) CreateUnit(ctx context.Context, actor *staff.User, dto *CreateUnitDTO) (*orgunit.Unit, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	layer, err := orgunit.ParseLayer(dto.Layer)
	if err != nil {
		return nil, serrors.Validation(err.Error(), nil)
	}
	if err := s.require(ctx, actor, ObjectUnits, "create"); err != nil {
		return nil, err
	}

	return composables.InTxResult(ctx, func(txCtx context.Context) (*orgunit.Unit, error) {
		if err := s.checkPlacement(txCtx, dto.ParentID, layer); err != nil {
			return nil, err
		}
		unit := &orgunit.Unit{
			ID:        uuid.New(),
			Code:      dto.Code,
			Name:      dto.Name,
			ParentID:  dto.ParentID,
			Layer:     layer,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.audit(txCtx, actor, "create", resourceUnit, unit.ID.String(), &unit.ID); err != nil {
			return nil, err
		}
		if err := s.units.Create(txCtx, unit); err != nil {
			return nil, mapPgError(err)
		}
		return unit, nil
	})
}

func (s *DirectoryService) checkPlacement(ctx context.Context, parentID *uuid.UUID, layer orgunit.Layer) error {
	if parentID == nil {
		if layer != orgunit.LayerExecutive {
			return serrors.Validation("root unit must be executive", nil)
		}
		roots, err := s.units.List(ctx, &orgunit.FindParams{Layer: orgunit.LayerExecutive})
		if err != nil {
			return mapPgError(err)
		}
		if len(roots) > 0 {
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "root already exists", nil)
		}
		return nil
	}
	parent, err := s.units.GetByID(ctx, *parentID)
	if err != nil {
		return notFound("parent unit", err)
	}
	if want, ok := parent.Layer.Below(); !ok || want != layer {
		return serrors.Validation(fmt.Sprintf("layer %s cannot sit under %s", layer, parent.Layer), nil)
	}
	return nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id uuid.UUID) (*staff.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return u, nil
}

func (s *DirectoryService) GetUserByUsername(ctx context.Context, username string) (*staff.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, notFound("user", err)
	}
	return u, nil
}

// OnboardUser creates a staff member whose layer follows the assigned unit.
func (s *DirectoryService) OnboardUser(ctx context.Context, actor *staff.User, dto *staff.CreateDTO) (*staff.User, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.require(ctx, actor, ObjectUsers, "create"); err != nil {
		return nil, err
	}

	return composables.InTxResult(ctx, func(txCtx context.Context) (*staff.User, error) {
		unit, err := s.units.GetByID(txCtx, dto.UnitID)
		if err != nil {
			return nil, notFound("unit", err)
		}
		now := time.Now().UTC()
		user := &staff.User{
			ID:        uuid.New(),
			Username:  dto.Username,
			Email:     dto.Email,
			FirstName: dto.FirstName,
			LastName:  dto.LastName,
			UnitID:    unit.ID,
			Layer:     unit.Layer,
			Role:      dto.Role,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := user.SetPassword(dto.Password); err != nil {
			return nil, err
		}
		if err := s.audit(txCtx, actor, "create", resourceUser, user.ID.String(), &unit.ID); err != nil {
			return nil, err
		}
		if err := s.users.Create(txCtx, user); err != nil {
			return nil, mapPgError(err)
		}
		return user, nil
	})
}

// ReassignUser moves a user to another unit. The user's layer becomes the
// new unit's layer.
func (s *DirectoryService) ReassignUser(ctx context.Context, actor *staff.User, userID, unitID uuid.UUID) (*staff.User, error) {
	if err := s.require(ctx, actor, ObjectUsers, "edit"); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*staff.User, error) {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return nil, notFound("user", err)
		}
		unit, err := s.units.GetByID(txCtx, unitID)
		if err != nil {
			return nil, notFound("unit", err)
		}
		if !unit.Active {
			return nil, serrors.Validation("cannot assign to an inactive unit", nil)
		}
		if err := s.audit(txCtx, actor, "reassign", resourceUser, user.ID.String(), &unit.ID); err != nil {
			return nil, err
		}
		if err := s.users.UpdateAssignment(txCtx, user.ID, unit.ID, unit.Layer); err != nil {
			return nil, mapPgError(err)
		}
		user.UnitID = unit.ID
		user.Layer = unit.Layer
		return user, nil
	})
}

func (s *DirectoryService) GrantVisibility(ctx context.Context, actor *staff.User, userID uuid.UUID, grant staff.Grant) error {
	if err := s.require(ctx, actor, ObjectUsers, "edit"); err != nil {
		return err
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return notFound("user", err)
		}
		if _, err := s.units.GetByID(txCtx, grant.UnitID); err != nil {
			return notFound("unit", err)
		}
		if user.HasGrant(grant.UnitID) {
			return serrors.NewServiceError(http.StatusConflict, serrors.CodeConflict, "grant already exists", nil)
		}
		if err := s.audit(txCtx, actor, "grant", resourceUser, user.ID.String(), &grant.UnitID); err != nil {
			return err
		}
		return mapPgError(s.users.AddGrant(txCtx, user.ID, grant))
	})
}

func (s *DirectoryService) RevokeVisibility(ctx context.Context, actor *staff.User, userID, unitID uuid.UUID) error {
	if err := s.require(ctx, actor, ObjectUsers, "edit"); err != nil {
		return err
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return notFound("user", err)
		}
		if !user.HasGrant(unitID) {
			return serrors.NotFound("grant", nil)
		}
		if err := s.audit(txCtx, actor, "revoke", resourceUser, user.ID.String(), &unitID); err != nil {
			return err
		}
		return mapPgError(s.users.RemoveGrant(txCtx, user.ID, unitID))
	})
}

// DisableUser soft-disables a user; users are never deleted.
func (s *DirectoryService) DisableUser(ctx context.Context, actor *staff.User, userID uuid.UUID) error {
	if err := s.require(ctx, actor, ObjectUsers, "edit"); err != nil {
		return err
	}
	if actor.ID == userID {
		return serrors.Validation("users cannot disable themselves", nil)
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return notFound("user", err)
		}
		if !user.Active {
			return nil
		}
		if err := s.audit(txCtx, actor, "disable", resourceUser, user.ID.String(), &user.UnitID); err != nil {
			return err
		}
		return mapPgError(s.users.SetActive(txCtx, user.ID, false))
	})
}

// require checks the capability policy and audits a denial.
func (s *DirectoryService) require(ctx context.Context, actor *staff.User, object, action string) error {
	if actor == nil || !actor.Active {
		return serrors.AccessDenied("inactive or unknown user")
	}
	err := s.authorizer.Authorize(ctx, authz.NewRequest(authz.SubjectForRole(actor.Layer.String()), object, action))
	if err == nil {
		return nil
	}
	if !errors.Is(err, authz.ErrForbidden) {
		return err
	}
	record := s.record(ctx, actor, action, object, "", nil)
	record.Decision = auditrecord.DecisionDeny
	record.Reason = auditrecord.ReasonMissingCapability
	if aErr := s.sink.Append(ctx, record); aErr != nil {
		return serrors.AuditWriteFailure(aErr)
	}
	return serrors.NewServiceError(http.StatusForbidden, serrors.CodeAccessDenied, fmt.Sprintf("%s may not %s", actor.Layer, action), err)
}

func (s *DirectoryService) audit(ctx context.Context, actor *staff.User, action, resourceType, resourceID string, unitID *uuid.UUID) error {
	if err := s.sink.Append(ctx, s.record(ctx, actor, action, resourceType, resourceID, unitID)); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("action", action).Error("audit append failed, aborting")
		return serrors.AuditWriteFailure(err)
	}
	return nil
}

func (s *DirectoryService) record(ctx context.Context, actor *staff.User, action, resourceType, resourceID string, unitID *uuid.UUID) *auditrecord.AuditRecord {
	return &auditrecord.AuditRecord{
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		OwningUnitID:  unitID,
		Decision:      auditrecord.DecisionAllow,
		Reason:        auditrecord.ReasonDirectoryChange,
		RequestID:     composables.UseRequestID(ctx),
		CreatedAt:     time.Now().UTC(),
	}
}

func notFound(what string, err error) error {
	if errors.Is(err, serrors.ErrNotFound) {
		return serrors.NotFound(what, err)
	}
	mapped := mapPgError(err)
	if errors.Is(mapped, serrors.ErrNotFound) {
		return serrors.NotFound(what, err)
	}
	return mapped
}

// CurrentActor resolves the acting user bound to ctx by the actor
// middleware.
func (s *DirectoryService) CurrentActor(ctx context.Context) (*staff.User, error) {
	id, err := composables.UseActorID(ctx)
	if err != nil {
		return nil, serrors.NewServiceError(http.StatusUnauthorized, "UNAUTHENTICATED", "no acting user", err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			return nil, serrors.NewServiceError(http.StatusUnauthorized, "UNAUTHENTICATED", "unknown acting user", err)
		}
		return nil, err
	}
	return user, nil
}
