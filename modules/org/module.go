package org

import (
	"embed"

	loggingservices "github.com/jacksonlee411/branch-crm/modules/logging/services"
	"github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/modules/org/presentation/controllers"
	"github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	app.RegisterServices(
		services.NewDirectoryService(
			persistence.NewUnitRepository(),
			persistence.NewUserRepository(),
			authz.Use(),
			app.Service(loggingservices.AuditService{}).(*loggingservices.AuditService),
			app.Logger(),
		),
	)

	app.RegisterControllers(
		controllers.NewOrgAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "org"
}
