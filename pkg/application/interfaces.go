package application

import (
	"context"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

// Module wires one bounded context into the application.
type Module interface {
	Register(app Application) error
	Name() string
}

type SeedFunc func(ctx context.Context, app Application) error

type Seeder interface {
	Seed(ctx context.Context, app Application) error
	Register(seedFuncs ...SeedFunc)
}

// Application with a dynamically extendable service registry.
type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus
	Migrations() MigrationManager
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...any)
	Service(service any) any
	Services() map[reflect.Type]any
}
