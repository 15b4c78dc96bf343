package crm

import (
	"embed"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/controllers"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	orgpersistence "github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register expects the access module to have registered the evaluator,
// scoper and capability gate.
func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&MigrationFiles)
	access := services.Access{
		Evaluator:    app.Service(accessservices.Evaluator{}).(*accessservices.Evaluator),
		Scoper:       app.Service(accessservices.Scoper{}).(*accessservices.Scoper),
		Capabilities: app.Service(accessservices.Capabilities{}).(*accessservices.Capabilities),
	}
	customers := persistence.NewCustomerRepository()
	opportunities := persistence.NewOpportunityRepository()
	users := orgpersistence.NewUserRepository()
	logger := app.Logger()

	targetService := services.NewTargetService(persistence.NewTargetRepository(), users, access, logger)
	app.RegisterServices(
		services.NewCustomerService(customers, opportunities, users, access, logger),
		services.NewOpportunityService(opportunities, customers, access, app.EventPublisher(), logger),
		services.NewActivityService(persistence.NewActivityRepository(), customers, opportunities, access, logger),
		targetService,
		services.NewAnalyticsService(customers, opportunities, access),
		services.NewTaskService(persistence.NewTaskRepository(), customers, opportunities, users, access, logger),
	)
	app.EventPublisher().Subscribe(targetService.HandleOpportunityWon)

	conf := configuration.Use()
	paging := controllers.Paging{Default: conf.PageSize, Max: conf.MaxPageSize}
	app.RegisterControllers(
		controllers.NewCustomersController(app, paging),
		controllers.NewOpportunitiesController(app, paging),
		controllers.NewActivitiesController(app, paging),
		controllers.NewTargetsController(app, paging),
		controllers.NewTasksController(app, paging),
		controllers.NewAnalyticsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "crm"
}
