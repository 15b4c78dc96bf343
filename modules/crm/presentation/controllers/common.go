package controllers

import (
	"net/http"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
)

const (
	module    = "crm"
	apiPrefix = "/crm/api"
)

// Paging bounds list page sizes.
type Paging struct {
	Default int
	Max     int
}

var DefaultPaging = Paging{Default: 25, Max: 100}

func (p Paging) read(r *http.Request) (limit, offset int) {
	return httpapi.Paging(r, p.Default, p.Max)
}

// actors resolves the acting user for every CRM controller.
type actors struct {
	directory *orgservices.DirectoryService
}

func newActors(app application.Application) actors {
	return actors{directory: app.Service(orgservices.DirectoryService{}).(*orgservices.DirectoryService)}
}

func (a actors) actor(w http.ResponseWriter, r *http.Request) (*staff.User, bool) {
	actor, err := a.directory.CurrentActor(r.Context())
	if err != nil {
		httpapi.WriteServiceError(w, r, err)
		return nil, false
	}
	return actor, true
}
