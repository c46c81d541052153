// Package persistence selects the storage backend for the repositories.
package persistence

import (
	"log/slog"
	"strings"

	"cleancity/config"
	"cleancity/internal/domain/repository"
	"cleancity/internal/errors"
	"cleancity/internal/infra/persistence/memory"
	"cleancity/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// Params defines the dependencies of the storage provider
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Result exposes every repository the use cases need
type Result struct {
	fx.Out

	TxManager          repository.TransactionManager
	AllotmentRepo      repository.AllotmentRepository
	RosterRepo         repository.RosterRepository
	ResidentStatusRepo repository.ResidentStatusRepository
}

// New builds the repositories for storage.driver.
func New(params Params) (Result, error) {
	driver := config.StorageDriverPostgres
	if params.Config.Storage != nil && params.Config.Storage.Driver != "" {
		driver = strings.ToLower(params.Config.Storage.Driver)
	}

	switch driver {
	case config.StorageDriverMemory:
		store, err := memory.NewSeededStore(params.Config)
		if err != nil {
			return Result{}, errors.Wrap(err, "failed to seed memory store")
		}
		params.Logger.Warn("Using in-memory storage, data is lost on restart")

		repos := store.Repositories()

		return Result{
			TxManager:          memory.NewTransactionManager(store),
			AllotmentRepo:      repos.NewAllotmentRepository(),
			RosterRepo:         repos.NewRosterRepository(),
			ResidentStatusRepo: repos.NewResidentStatusRepository(),
		}, nil

	case config.StorageDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Result{}, err
		}

		return Result{
			TxManager:          postgres.NewTransactionManager(db),
			AllotmentRepo:      postgres.NewAllotmentRepository(db),
			RosterRepo:         postgres.NewRosterRepository(db),
			ResidentStatusRepo: postgres.NewResidentStatusRepository(db),
		}, nil

	default:
		return Result{}, errors.Errorf("unknown storage driver %q", driver)
	}
}
