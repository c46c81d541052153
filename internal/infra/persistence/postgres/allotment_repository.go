// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"
	"time"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"
	"cleancity/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// allotmentRepository implements the repository.AllotmentRepository interface.
type allotmentRepository struct {
	db *gorm.DB
}

// NewAllotmentRepository is the constructor for allotmentRepository.
func NewAllotmentRepository(db *gorm.DB) repository.AllotmentRepository {
	return &allotmentRepository{
		db: db,
	}
}

// Create persists a new allotment with its entries.
func (repo *allotmentRepository) Create(ctx context.Context, allotment *entity.Allotment) error {
	allotmentM := fromAllotmentDomain(allotment)
	allotmentM.Version = 1

	if err := repo.db.WithContext(ctx).Create(allotmentM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required allotment information")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("allotment violates a table constraint")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create allotment")
	}

	allotment.ID = allotmentM.ID
	allotment.Version = allotmentM.Version
	allotment.CreatedAt = allotmentM.CreatedAt
	allotment.UpdatedAt = allotmentM.UpdatedAt

	return nil
}

// FindByID retrieves an allotment by its unique ID.
func (repo *allotmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Allotment, error) {
	var allotmentM model.AllotmentModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&allotmentM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAllotmentNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find allotment by ID")
	}

	return toAllotmentDomain(&allotmentM), nil
}

// Update writes the mutable columns guarded by the version column.
func (repo *allotmentRepository) Update(ctx context.Context, allotment *entity.Allotment) error {
	allotmentM := fromAllotmentDomain(allotment)

	result := repo.db.WithContext(ctx).
		Model(&model.AllotmentModel{}).
		Where("id = ? AND version = ?", allotment.ID, allotment.Version).
		Updates(map[string]any{
			"status":           allotmentM.Status,
			"location_data":    allotmentM.LocationData,
			"labour_collected": allotmentM.LabourCollected,
			"completed":        allotmentM.Completed,
			"completed_at":     allotmentM.CompletedAt,
			"updated_at":       allotmentM.UpdatedAt,
			"version":          gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update allotment")
	}

	if result.RowsAffected == 0 {
		return domainerrors.ErrAllotmentVersionConflict.WithDetails("allotment " + allotment.ID.String())
	}

	allotment.Version++

	return nil
}

// Find lists allotments matching the filter, oldest first.
func (repo *allotmentRepository) Find(ctx context.Context, filter repository.AllotmentFilter) ([]*entity.Allotment, error) {
	var allotmentModels []*model.AllotmentModel

	if err := applyAllotmentFilter(repo.db.WithContext(ctx).Clauses(dbresolver.Read), filter).
		Order("created_at ASC").
		Find(&allotmentModels).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find allotments")
	}

	allotments := make([]*entity.Allotment, 0, len(allotmentModels))
	for _, allotmentM := range allotmentModels {
		allotments = append(allotments, toAllotmentDomain(allotmentM))
	}

	return allotments, nil
}

// Delete removes every allotment matching the filter.
func (repo *allotmentRepository) Delete(ctx context.Context, filter repository.AllotmentFilter) (int64, error) {
	result := applyAllotmentFilter(repo.db.WithContext(ctx), filter).
		Delete(&model.AllotmentModel{})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete allotments")
	}

	return result.RowsAffected, nil
}

func applyAllotmentFilter(query *gorm.DB, filter repository.AllotmentFilter) *gorm.DB {
	if len(filter.InchargerIDs) > 0 {
		query = query.Where("incharger_id IN ?", filter.InchargerIDs)
	}
	if len(filter.LabourIDs) > 0 {
		query = query.Where("labour_id IN ?", filter.LabourIDs)
	}
	if street := strings.TrimSpace(filter.Street); street != "" {
		query = query.Where("LOWER(street) = LOWER(?)", street)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Time != "" {
		query = query.Where("time = ?", filter.Time)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(filter.Statuses))
	}
	if filter.ExcludeStatus != "" {
		query = query.Where("status <> ?", filter.ExcludeStatus.String())
	}

	return query
}

func statusStrings(statuses []entity.AllotmentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}

	return out
}

// toAllotmentDomain converts a GORM model to a domain entity.
func toAllotmentDomain(data *model.AllotmentModel) *entity.Allotment {
	if data == nil {
		return nil
	}

	entries := make([]entity.LocationEntry, 0, len(data.LocationData))
	for _, e := range data.LocationData {
		entries = append(entries, entity.LocationEntry{
			UserID:                 e.UserID,
			UserAddress:            e.UserAddress,
			Username:               e.Username,
			Contact:                e.Contact,
			Latitude:               e.Latitude,
			Longitude:              e.Longitude,
			TodayStatus:            entity.TodayStatus(e.TodayStatus),
			LabourCollected:        e.LabourCollected,
			CollectedAt:            e.CollectedAt,
			PickupState:            entity.PickupState(e.PickupState),
			CollectionAcknowledged: e.CollectionAcknowledged,
			AcknowledgedAt:         e.AcknowledgedAt,
			UserConfirmed:          e.UserConfirmed,
			CollectionConfirmed:    e.CollectionConfirmed,
			ConfirmedAt:            e.ConfirmedAt,
			ConfirmedBy:            entity.Role(e.ConfirmedBy),
		})
	}

	return &entity.Allotment{
		ID:                data.ID,
		InchargerID:       data.InchargerID,
		InchargerName:     data.InchargerName,
		LabourID:          data.LabourID,
		LabourName:        data.LabourName,
		LabourPhoneNumber: data.LabourPhoneNumber,
		Street:            data.Street,
		Date:              data.Date,
		Time:              data.Time,
		Status:            entity.AllotmentStatus(data.Status),
		LocationData:      entries,
		LabourCollected:   data.LabourCollected,
		Completed:         data.Completed,
		CompletedAt:       data.CompletedAt,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
		Version:           data.Version,
	}
}

// fromAllotmentDomain converts a domain entity to a GORM model.
func fromAllotmentDomain(data *entity.Allotment) *model.AllotmentModel {
	if data == nil {
		return nil
	}

	entries := make([]model.LocationEntryModel, 0, len(data.LocationData))
	for _, e := range data.LocationData {
		entries = append(entries, model.LocationEntryModel{
			UserID:                 e.UserID,
			UserAddress:            e.UserAddress,
			Username:               e.Username,
			Contact:                e.Contact,
			Latitude:               e.Latitude,
			Longitude:              e.Longitude,
			TodayStatus:            string(e.TodayStatus),
			LabourCollected:        e.LabourCollected,
			CollectedAt:            utcPtr(e.CollectedAt),
			PickupState:            string(e.PickupState),
			CollectionAcknowledged: e.CollectionAcknowledged,
			AcknowledgedAt:         utcPtr(e.AcknowledgedAt),
			UserConfirmed:          e.UserConfirmed,
			CollectionConfirmed:    e.CollectionConfirmed,
			ConfirmedAt:            utcPtr(e.ConfirmedAt),
			ConfirmedBy:            e.ConfirmedBy.String(),
		})
	}

	return &model.AllotmentModel{
		ID:                data.ID,
		InchargerID:       data.InchargerID,
		InchargerName:     data.InchargerName,
		LabourID:          data.LabourID,
		LabourName:        data.LabourName,
		LabourPhoneNumber: data.LabourPhoneNumber,
		Street:            data.Street,
		Date:              data.Date,
		Time:              data.Time,
		Status:            data.Status.String(),
		LocationData:      entries,
		LabourCollected:   data.LabourCollected,
		Completed:         data.Completed,
		CompletedAt:       data.CompletedAt,
		Version:           data.Version,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()

	return &u
}
