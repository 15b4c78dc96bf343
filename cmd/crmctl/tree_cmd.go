package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	orgpersistence "github.com/jacksonlee411/branch-crm/modules/org/infrastructure/persistence"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
)

func newTreeCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the org directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := composables.WithPool(cmd.Context(), pool)
			return composables.InTx(ctx, func(txCtx context.Context) error {
				units, err := orgpersistence.NewUnitRepository().List(txCtx, &orgunit.FindParams{ActiveOnly: activeOnly})
				if err != nil {
					return err
				}
				tree, err := orgservices.BuildTree(units)
				if err != nil {
					return err
				}
				return renderTree(cmd.OutOrStdout(), tree)
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only print active units")
	return cmd
}

func renderTree(w io.Writer, tree *orgservices.Tree) error {
	var err error
	tree.Walk(func(u orgunit.Unit, depth int) {
		if err != nil {
			return
		}
		marker := ""
		if !u.Active {
			marker = " (inactive)"
		}
		_, err = fmt.Fprintf(w, "%s%s  %s [%s]%s\n", strings.Repeat("  ", depth), u.Code, u.Name, u.Layer, marker)
	})
	return err
}
