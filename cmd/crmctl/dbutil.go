package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/branch-crm/modules"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/configuration"
	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
)

func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, configuration.Use().Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return pool, nil
}

// loadApp wires every built-in module against pool so commands see the same
// schemas and services as the server.
func loadApp(pool *pgxpool.Pool) (application.Application, error) {
	logger := configuration.Use().Logger()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		Logger:   logger,
		EventBus: eventbus.NewEventPublisher(logger),
	})
	if err := modules.Load(app); err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	return app, nil
}
