package main

import (
	"context"
	"log/slog"
	"os"

	"cleancity/config"
	"cleancity/internal/delivery"
	"cleancity/internal/delivery/api"
	"cleancity/internal/delivery/api/middleware"
	"cleancity/internal/delivery/api/router/handler"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"
	"cleancity/internal/infra/auth"
	"cleancity/internal/infra/lock"
	logs "cleancity/internal/infra/log"
	"cleancity/internal/infra/notification"
	"cleancity/internal/infra/persistence"
	"cleancity/internal/infra/pubsub"
	"cleancity/internal/infra/qrcode"
	"cleancity/internal/infra/report"
	"cleancity/internal/usecase/impl"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(
				injectInfra(),
				injectService(),
				injectUsecase(),
				injectDelivery(),
				injectMiddleware(),
				injectHandler(),
				fx.Invoke(
					startServer,
				),
			)
			if err := app.Err(); err != nil {
				return err
			}

			app.Run()

			return nil
		},
	}
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		persistence.New,
		lock.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
			pubsub.NewEventPublisher,
			newNotificationService,
			newQRCodeService,
			report.NewXLSXReportService,
		),
	)
}

// newNotificationService falls back to a logging no-op when firebase is not configured
func newNotificationService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.NotificationService, error) {
	if cfg.Firebase == nil {
		return notification.NewNoopService(logger), nil
	}

	svc, err := notification.NewFirebaseService(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Firebase service")
	}

	return svc, nil
}

func newQRCodeService(cfg *config.Config) service.QRCodeService {
	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAllotmentService,
			impl.NewAllotmentQueryService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAllotmentHandler,
			handler.NewResidentHandler,
			handler.NewInchargerHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
