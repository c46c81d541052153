package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"cleancity/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_MemoryDriverUsesSeed(t *testing.T) {
	cfg := &config.Config{Storage: &config.StorageConfig{
		Driver: "Memory",
		Seed: &config.SeedConfig{
			Inchargers: []config.SeedIncharger{{BusinessID: "INC-1", Name: "Meena"}},
			Labours:    []config.SeedLabour{{BusinessID: "L1", Name: "Ravi", Incharger: "INC-1"}},
		},
	}}

	result, err := New(Params{Lifecycle: fxtest.NewLifecycle(t), Config: cfg, Logger: testLogger()})
	require.NoError(t, err)
	require.NotNil(t, result.TxManager)
	require.NotNil(t, result.ResidentStatusRepo)

	labour, err := result.RosterRepo.FindLabour(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", labour.Name)
}

func TestNew_PostgresWithoutSection(t *testing.T) {
	cfg := &config.Config{Storage: &config.StorageConfig{Driver: config.StorageDriverPostgres}}

	_, err := New(Params{Lifecycle: fxtest.NewLifecycle(t), Config: cfg, Logger: testLogger()})
	require.Error(t, err)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: &config.StorageConfig{Driver: "sqlite"}}

	_, err := New(Params{Lifecycle: fxtest.NewLifecycle(t), Config: cfg, Logger: testLogger()})
	require.ErrorContains(t, err, "unknown storage driver")
}
