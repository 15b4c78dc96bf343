package access

import (
	"github.com/jacksonlee411/branch-crm/modules/access/services"
	loggingservices "github.com/jacksonlee411/branch-crm/modules/logging/services"
	"github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register needs the logging module's AuditService as the sink.
func (m *Module) Register(app application.Application) error {
	threshold, err := services.ParseMaskThreshold(configuration.Use().Access.MaskThreshold)
	if err != nil {
		return err
	}
	sink := app.Service(loggingservices.AuditService{}).(*loggingservices.AuditService)
	directory := persistence.NewPgDirectory()

	app.RegisterServices(
		services.NewEvaluator(
			directory,
			sink,
			services.WithMaskThreshold(threshold),
			services.WithLogger(app.Logger()),
		),
		services.NewScoper(directory),
		services.NewCapabilities(authz.Use(), services.WithDenialAudit(sink)),
	)
	return nil
}

func (m *Module) Name() string {
	return "access"
}
