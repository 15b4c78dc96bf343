package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	var (
		down   bool
		status bool
	)
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Apply the embedded schema migrations",
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

			migrations := app.Migrations()
			switch {
			case status:
				results, err := migrations.Status(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", r.State, r.Source.Path)
				}
				return nil
			case down:
				return migrations.Rollback(cmd.Context())
			default:
				return migrations.Run(cmd.Context())
			}
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "Print migration status and exit")
	return cmd
}
