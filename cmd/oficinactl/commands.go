package main

import (
	"fmt"

	"mecanica_oficina/internal/adapter/persistence/repository"
	"mecanica_oficina/internal/app"
	"mecanica_oficina/internal/config"
	"mecanica_oficina/internal/infrastructure/database"
	"mecanica_oficina/internal/worker"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oficinactl",
		Short:         "Operational tasks for the work order service",
		SilenceUsage: true,
	}
	root.AddCommand(newTablesCmd(), newReconcileCmd())
	return root
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Create the DynamoDB tables that do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ddb, err := database.ConnectDynamoDB(cmd.Context())
			if err != nil {
				return err
			}
			return repository.CreateTables(cmd.Context(), ddb, repository.TablesFromEnv())
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Move invoiced work orders whose status update was lost to Invoiced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if batch <= 0 {
				batch = cfg.ReconcileBatch
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			report, err := worker.NewReconciler(a.Invoices, cfg.ReconcileInterval, batch).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d repaired=%d failed=%d\n", report.Scanned, report.Repaired, report.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "work orders examined in this pass (defaults to RECONCILE_BATCH)")
	return cmd
}
