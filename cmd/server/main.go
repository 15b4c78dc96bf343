package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/branch-crm/modules"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
	"github.com/jacksonlee411/branch-crm/pkg/logging"
	"github.com/jacksonlee411/branch-crm/pkg/metrics"
	"github.com/jacksonlee411/branch-crm/pkg/middleware"
	"github.com/jacksonlee411/branch-crm/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
			logger,
		)
		defer tracingCleanup()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	app.RegisterMiddleware(
		middleware.TracedMiddleware("http"),
		middleware.WithLogger(logger, middleware.LoggerOptions{RequestIDHeader: conf.RequestIDHeader}),
		middleware.Provide(pool),
		middleware.WithTransaction(),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus))
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.NewHTTPServer(app).Start(runCtx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
