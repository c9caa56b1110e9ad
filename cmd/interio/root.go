package main

import (
	"context"
	"fmt"

	"github.com/interiohub/interio/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "interio",
		Short:        "Interior redesign backend: credits, payments and generation jobs",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := apiOptions()
			if withWorker {
				opts = append(opts, pipelineOptions()...)
			}
			return run(opts...)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also consume generation jobs in this process")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume and execute generation jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := append(baseOptions(), jobOptions()...)
			return run(append(opts, pipelineOptions()...)...)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app := fx.New(
				append(baseOptions(),
					fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
						return migration.RunMigrations(ctx, conn, log)
					}),
				)...,
			)
			if err := app.Err(); err != nil {
				return err
			}
			return app.Stop(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

func run(opts ...fx.Option) error {
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
