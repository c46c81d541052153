package memory

import (
	"context"
	"testing"

	"cleancity/config"
	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllotment(labourID, street, date, tm string, status entity.AllotmentStatus) *entity.Allotment {
	return &entity.Allotment{
		ID:           uuid.New(),
		InchargerID:  "INC-1",
		LabourID:     labourID,
		Street:       street,
		Date:         date,
		Time:         tm,
		Status:       status,
		LocationData: []entity.LocationEntry{{UserID: "U1", TodayStatus: entity.TodayStatusYes}},
	}
}

func TestAllotmentRepository_CreateFindUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewAllotmentRepository(store)

	a := newAllotment("L1", "MG Road", "2024-01-01", "09:00", entity.AllotmentStatusPending)
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, int64(1), a.Version)

	loaded, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	loaded.LocationData[0].LabourCollected = true

	again, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, again.LocationData[0].LabourCollected, "reads must not alias stored rows")

	require.NoError(t, repo.Update(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	err = repo.Update(ctx, again)
	require.ErrorIs(t, err, domainerrors.ErrAllotmentVersionConflict)

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrAllotmentNotFound)
}

func TestAllotmentRepository_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewAllotmentRepository(store)

	first := newAllotment("L1", "MG Road", "2024-01-01", "09:00", entity.AllotmentStatusPending)
	second := newAllotment("L1", "Brigade Road", "2024-01-01", "11:00", entity.AllotmentStatusCollected)
	third := newAllotment("L2", "mg road", "2024-01-02", "09:00", entity.AllotmentStatusPendingAcknowledgment)
	for _, a := range []*entity.Allotment{first, second, third} {
		require.NoError(t, repo.Create(ctx, a))
	}

	got, err := repo.Find(ctx, repository.AllotmentFilter{Street: "MG ROAD", ExcludeStatus: entity.AllotmentStatusCollected})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)

	got, err = repo.Find(ctx, repository.AllotmentFilter{LabourIDs: []string{"L1"}, Statuses: []entity.AllotmentStatus{entity.AllotmentStatusCollected}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	n, err := repo.Delete(ctx, repository.AllotmentFilter{LabourIDs: []string{"L9"}, Street: "MG Road", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(ctx, repository.AllotmentFilter{LabourIDs: []string{"L1"}, Street: "mg road", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = repo.Find(ctx, repository.AllotmentFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTransactionManager_RollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tm := NewTransactionManager(store)

	boom := errors.New("boom")
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		require.NoError(t, f.NewAllotmentRepository().Create(ctx, newAllotment("L1", "MG Road", "2024-01-01", "09:00", entity.AllotmentStatusPending)))
		require.NoError(t, f.NewResidentStatusRepository().SetTodayStatus(ctx, "U1", "MG Road", entity.TodayStatusNo))

		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := NewAllotmentRepository(store).Find(ctx, repository.AllotmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = NewResidentStatusRepository(store).FindTodayStatus(ctx, "U1", "MG Road")
	require.ErrorIs(t, err, repository.ErrResidentStatusNotFound)
}

func TestTransactionManager_Commits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tm := NewTransactionManager(store)

	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewAllotmentRepository().Create(ctx, newAllotment("L1", "MG Road", "2024-01-01", "09:00", entity.AllotmentStatusPending))
	})
	require.NoError(t, err)

	all, err := NewAllotmentRepository(store).Find(ctx, repository.AllotmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRosterRepository_DualIdentifiers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	inc := &entity.Incharger{BusinessID: "INC-1", Name: "Meena"}
	store.AddIncharger(inc)
	labour := &entity.Labour{BusinessID: "L1", Name: "Ravi", InchargerID: inc.ID}
	store.AddLabour(labour)
	store.AddLabour(&entity.Labour{BusinessID: "L2", Name: "Sita", InchargerID: inc.ID})
	store.AddLabour(&entity.Labour{BusinessID: "L3", Name: "Other", InchargerID: uuid.New()})

	roster := NewRosterRepository(store)

	byInternal, err := roster.FindLabour(ctx, labour.ID.String())
	require.NoError(t, err)
	byBusiness, err := roster.FindLabour(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, byInternal, byBusiness)

	_, err = roster.FindLabour(ctx, "L404")
	require.ErrorIs(t, err, domainerrors.ErrLabourNotFound)

	gotInc, err := roster.FindIncharger(ctx, inc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "INC-1", gotInc.BusinessID)

	labours, err := roster.ListLabourByIncharger(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, labours, 2)
	assert.Equal(t, "L1", labours[0].BusinessID)
	assert.Equal(t, "L2", labours[1].BusinessID)
}

func TestSeed(t *testing.T) {
	cfg := &config.Config{Storage: &config.StorageConfig{Seed: &config.SeedConfig{
		Inchargers: []config.SeedIncharger{{BusinessID: "INC-1", Name: "Meena"}},
		Labours:    []config.SeedLabour{{BusinessID: "L1", Name: "Ravi", Incharger: "INC-1", Streets: []string{"MG Road"}}},
		Residents:  []config.SeedResident{{UserID: "U1", Street: "MG Road", TodayStatus: "yes"}},
	}}}

	store, err := NewSeededStore(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	labour, err := NewRosterRepository(store).FindLabour(ctx, "L1")
	require.NoError(t, err)
	inc, err := NewRosterRepository(store).FindIncharger(ctx, "INC-1")
	require.NoError(t, err)
	assert.Equal(t, inc.ID, labour.InchargerID)

	status, err := NewResidentStatusRepository(store).FindTodayStatus(ctx, "U1", "mg road")
	require.NoError(t, err)
	assert.Equal(t, entity.TodayStatusYes, status.TodayStatus)

	cfg.Storage.Seed.Labours[0].Incharger = "INC-404"
	_, err = NewSeededStore(cfg)
	require.Error(t, err)
}
