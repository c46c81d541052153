package main

import (
	"context"
	"log/slog"

	"cleancity/config"
	"cleancity/internal/domain/lifecycle"
	logs "cleancity/internal/infra/log"
	"cleancity/internal/infra/persistence/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				db     *gorm.DB
				logger *slog.Logger
			)

			app := fx.New(
				fx.NopLogger,
				fx.Provide(
					config.New,
					logs.New,
					postgres.New,
				),
				fx.Populate(&db, &logger),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()

			startCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
				defer stopCancel()
				_ = app.Stop(stopCtx)
			}()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			logger.Info("Postgres schema migrated")

			return nil
		},
	}
}
