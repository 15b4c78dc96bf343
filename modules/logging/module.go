package logging

import (
	"embed"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/logging/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/controllers"
	"github.com/jacksonlee411/branch-crm/modules/logging/services"
	orgpersistence "github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register provides the AuditService that every other module appends
// through, so it must run first.
func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(
		services.NewAuditService(
			persistence.NewAuditRecordRepository(),
			accessservices.NewScoper(orgpersistence.NewPgDirectory()),
			accessservices.NewCapabilities(authz.Use()),
		),
	)
	app.RegisterControllers(
		controllers.NewAuditController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "logging"
}
