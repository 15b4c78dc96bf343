package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	crmpersistence "github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence"
	crmseed "github.com/jacksonlee411/branch-crm/modules/crm/seed"
	orgpersistence "github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	orgseed "github.com/jacksonlee411/branch-crm/modules/org/seed"
	"github.com/jacksonlee411/branch-crm/pkg/application"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load default directory, accounts or sample data",
	}
	cmd.AddCommand(newSeedStepCmd("directory", "Create the default org units", seedDirectory))
	cmd.AddCommand(newSeedStepCmd("users", "Create the default accounts (bcrypt-hashed)", seedUsers))
	cmd.AddCommand(newSeedStepCmd("sample", "Create sample customers, opportunities and a target", seedSample))
	cmd.AddCommand(newSeedStepCmd("all", "Run directory, users and sample in order", seedDirectory, seedUsers, seedSample))
	return cmd
}

func newSeedStepCmd(use, short string, steps ...application.SeedFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			app, err := loadApp(pool)
			if err != nil {
				return err
			}

			seeder := application.NewSeeder()
			seeder.Register(steps...)
			ctx := composables.WithPool(cmd.Context(), pool)
			if err := composables.InTx(ctx, func(txCtx context.Context) error {
				return seeder.Seed(txCtx, app)
			}); err != nil {
				return fmt.Errorf("seed %s: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed %s: done\n", use)
			return nil
		},
	}
}

func directorySeeder(app application.Application) *orgseed.Directory {
	return &orgseed.Directory{
		Units:  orgpersistence.NewUnitRepository(),
		Users:  orgpersistence.NewUserRepository(),
		Logger: app.Logger(),
	}
}

func seedDirectory(ctx context.Context, app application.Application) error {
	return directorySeeder(app).SeedUnits(ctx, orgseed.DefaultUnits)
}

func seedUsers(ctx context.Context, app application.Application) error {
	return directorySeeder(app).SeedUsers(ctx, orgseed.DefaultUsers)
}

func seedSample(ctx context.Context, app application.Application) error {
	s := &crmseed.Sample{
		Customers:     crmpersistence.NewCustomerRepository(),
		Opportunities: crmpersistence.NewOpportunityRepository(),
		Targets:       crmpersistence.NewTargetRepository(),
		Tasks:         crmpersistence.NewTaskRepository(),
		Users:         orgpersistence.NewUserRepository(),
		Scoper:        app.Service(accessservices.Scoper{}).(*accessservices.Scoper),
		Logger:        app.Logger(),
	}
	return s.Seed(ctx, "rm1", "branch")
}
