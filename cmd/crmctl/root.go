package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Branch CRM schema, seed and directory tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newInitDBCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newTreeCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
