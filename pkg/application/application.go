package application

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
)

// ---- Seeder implementation ----

func NewSeeder() Seeder {
	return &seeder{}
}

type seeder struct {
	seedFuncs []SeedFunc
}

func (s *seeder) Seed(ctx context.Context, app Application) error {
	for i, seedFunc := range s.seedFuncs {
		app.Logger().Infof("Seeding step %d/%d", i+1, len(s.seedFuncs))
		if err := seedFunc(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) Register(seedFuncs ...SeedFunc) {
	s.seedFuncs = append(s.seedFuncs, seedFuncs...)
}

// ---- Application implementation ----

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	bus := opts.EventBus
	if bus == nil {
		bus = eventbus.NewEventPublisher(logger)
	}
	return &application{
		pool:           opts.Pool,
		logger:         logger,
		eventPublisher: bus,
		migrations:     NewMigrationManager(opts.Pool, logger),
		controllers:    make(map[string]Controller),
		services:       make(map[reflect.Type]any),
	}
}

type application struct {
	pool           *pgxpool.Pool
	logger         *logrus.Logger
	eventPublisher eventbus.EventBus
	migrations     MigrationManager
	controllers    map[string]Controller
	middleware     []mux.MiddlewareFunc
	services       map[reflect.Type]any
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) EventPublisher() eventbus.EventBus {
	return app.eventPublisher
}

func (app *application) Migrations() MigrationManager {
	return app.migrations
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers returns registered controllers ordered by key.
func (app *application) Controllers() []Controller {
	keys := make([]string, 0, len(app.controllers))
	for k := range app.controllers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Controller, 0, len(keys))
	for _, k := range keys {
		out = append(out, app.controllers[k])
	}
	return out
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service any) any {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]any {
	return app.services
}

// LoadModules registers modules in order.
func LoadModules(app Application, modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(app); err != nil {
			return fmt.Errorf("module %s: %w", m.Name(), err)
		}
		app.Logger().WithField("module", m.Name()).Debug("module registered")
	}
	return nil
}
