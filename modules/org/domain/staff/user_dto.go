package staff

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	Username  string    `json:"username" validate:"required,min=3,max=50"`
	Email     string    `json:"email" validate:"required,email"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	UnitID    uuid.UUID `json:"unit_id" validate:"required"`
	Role      Role      `json:"role" validate:"required,oneof=admin sales service support analyst manager"`
	Password  string    `json:"password" validate:"required,min=6"`
}

func (d *CreateDTO) Normalize() {
	d.Username = strings.ToLower(strings.TrimSpace(d.Username))
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}
