package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"
	"cleancity/internal/infra/persistence/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return db, mock
}

var allotmentColumns = []string{
	"id", "incharger_id", "incharger_name", "labour_id", "labour_name", "labour_phone_number",
	"street", "date", "time", "status", "location_data", "labour_collected", "completed",
	"completed_at", "version", "created_at", "updated_at",
}

func allotmentRow(t *testing.T, rows *sqlmock.Rows, id uuid.UUID, status string, entries []model.LocationEntryModel) *sqlmock.Rows {
	t.Helper()

	raw, err := json.Marshal(entries)
	require.NoError(t, err)

	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	return rows.AddRow(
		id.String(), "INC-1", "Meena", "L1", "Ravi", "9000000001",
		"MG Road", "2024-01-01", "09:00", status, raw, false, false,
		nil, int64(3), created, created,
	)
}

func TestAllotmentRepository_FindByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	id := uuid.New()
	rows := allotmentRow(t, sqlmock.NewRows(allotmentColumns), id, "Pending", []model.LocationEntryModel{
		{UserID: "U1", TodayStatus: "YES", Latitude: 12.97, Longitude: 77.59},
		{UserID: "U2", TodayStatus: "NO"},
	})

	mock.ExpectQuery(`SELECT \* FROM "allotments" WHERE id = \$1`).
		WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, entity.AllotmentStatusPending, got.Status)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.LocationData, 2)

	u1, ok := got.Entry("U1")
	require.True(t, ok)
	assert.Equal(t, entity.TodayStatusYes, u1.TodayStatus)
	assert.InDelta(t, 77.59, u1.Longitude, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_FindByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "allotments"`).
		WillReturnRows(sqlmock.NewRows(allotmentColumns))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrAllotmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_FindByID_DriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "allotments"`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
	assert.Equal(t, domainerrors.KindStore, appErr.Kind())
}

func TestAllotmentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	a := &entity.Allotment{
		ID:           uuid.New(),
		InchargerID:  "INC-1",
		LabourID:     "L1",
		Street:       "MG Road",
		Date:         "2024-01-01",
		Time:         "09:00",
		Status:       entity.AllotmentStatusPending,
		LocationData: []entity.LocationEntry{{UserID: "U1", TodayStatus: entity.TodayStatusYes}},
	}

	mock.ExpectQuery(`INSERT INTO "allotments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.ID.String()))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(1), a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_Update(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	a := &entity.Allotment{ID: uuid.New(), Status: entity.AllotmentStatusPendingAcknowledgment, Version: 4}

	mock.ExpectExec(`UPDATE "allotments" SET .*"version"=version \+ 1.* WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), a))
	assert.Equal(t, int64(5), a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_Update_StaleVersion(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	a := &entity.Allotment{ID: uuid.New(), Status: entity.AllotmentStatusPending, Version: 2}

	mock.ExpectExec(`UPDATE "allotments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), a)
	require.ErrorIs(t, err, domainerrors.ErrAllotmentVersionConflict)
	assert.Equal(t, int64(2), a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_Find(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	rows := sqlmock.NewRows(allotmentColumns)
	rows = allotmentRow(t, rows, uuid.New(), "Pending", nil)
	rows = allotmentRow(t, rows, uuid.New(), "PendingAcknowledgment", nil)

	mock.ExpectQuery(`SELECT \* FROM "allotments" WHERE incharger_id IN .* AND LOWER\(street\) = LOWER\(.*\) AND status <> .* ORDER BY created_at ASC`).
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), repository.AllotmentFilter{
		InchargerIDs:  []string{"INC-1", uuid.NewString()},
		Street:        "mg road",
		ExcludeStatus: entity.AllotmentStatusCollected,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.AllotmentStatusPendingAcknowledgment, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAllotmentRepository(db)

	mock.ExpectExec(`DELETE FROM "allotments" WHERE incharger_id IN .* AND labour_id IN .* AND LOWER\(street\) = LOWER\(.*\) AND date = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.Delete(context.Background(), repository.AllotmentFilter{
		InchargerIDs: []string{"INC-1"},
		LabourIDs:    []string{"L1"},
		Street:       "MG Road",
		Date:         "2024-01-01",
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "allotments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := tm.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		return f.NewAllotmentRepository().Update(context.Background(), &entity.Allotment{ID: uuid.New(), Version: 1})
	})
	require.ErrorIs(t, err, domainerrors.ErrAllotmentVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_Commits(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "allotments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		return f.NewAllotmentRepository().Update(context.Background(), &entity.Allotment{ID: uuid.New(), Version: 1})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
