package postgres

import (
	"context"
	"time"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"
	"cleancity/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// residentStatusRepository implements the repository.ResidentStatusRepository interface.
type residentStatusRepository struct {
	db *gorm.DB
}

// NewResidentStatusRepository is the constructor for residentStatusRepository.
func NewResidentStatusRepository(db *gorm.DB) repository.ResidentStatusRepository {
	return &residentStatusRepository{
		db: db,
	}
}

// FindTodayStatus returns the registry flag for the resident on the street.
func (repo *residentStatusRepository) FindTodayStatus(ctx context.Context, userID, street string) (*entity.ResidentStatus, error) {
	var statusM model.ResidentStatusModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(street) = LOWER(?)", userID, street).
		First(&statusM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResidentStatusNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find resident status")
	}

	return toResidentStatusDomain(&statusM), nil
}

// SetTodayStatus upserts the registry flag.
func (repo *residentStatusRepository) SetTodayStatus(ctx context.Context, userID, street string, status entity.TodayStatus) error {
	statusM := &model.ResidentStatusModel{
		UserID:      userID,
		Street:      street,
		TodayStatus: string(status),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "street"}},
			DoUpdates: clause.AssignmentColumns([]string{"today_status", "updated_at"}),
		}).
		Create(statusM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to set resident status")
	}

	return nil
}

// toResidentStatusDomain converts a GORM model to a domain entity.
func toResidentStatusDomain(data *model.ResidentStatusModel) *entity.ResidentStatus {
	return &entity.ResidentStatus{
		UserID:      data.UserID,
		Street:      data.Street,
		TodayStatus: entity.TodayStatus(data.TodayStatus),
		UpdatedAt:   data.UpdatedAt,
	}
}
