package postgres

import (
	"context"
	"strings"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"
	"cleancity/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// rosterRepository implements the repository.RosterRepository interface.
type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository is the constructor for rosterRepository.
func NewRosterRepository(db *gorm.DB) repository.RosterRepository {
	return &rosterRepository{
		db: db,
	}
}

// FindIncharger resolves an incharger by internal or business id.
func (repo *rosterRepository) FindIncharger(ctx context.Context, id string) (*entity.Incharger, error) {
	var inchargerM model.InchargerModel

	err := byIdentity(repo.db.WithContext(ctx).Clauses(dbresolver.Read), id).First(&inchargerM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrInchargerNotFound.WithDetails("id " + id)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find incharger")
	}

	return toInchargerDomain(&inchargerM), nil
}

// FindLabour resolves a labour by internal or business id.
func (repo *rosterRepository) FindLabour(ctx context.Context, id string) (*entity.Labour, error) {
	var labourM model.LabourModel

	err := byIdentity(repo.db.WithContext(ctx).Clauses(dbresolver.Read), id).First(&labourM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrLabourNotFound.WithDetails("id " + id)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find labour")
	}

	return toLabourDomain(&labourM), nil
}

// ListLabourByIncharger returns the incharger's labour in roster order.
func (repo *rosterRepository) ListLabourByIncharger(ctx context.Context, inchargerID uuid.UUID) ([]*entity.Labour, error) {
	var labourModels []*model.LabourModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Where("incharger_id = ?", inchargerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&labourModels).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list labour by incharger")
	}

	labours := make([]*entity.Labour, 0, len(labourModels))
	for _, labourM := range labourModels {
		labours = append(labours, toLabourDomain(labourM))
	}

	return labours, nil
}

// byIdentity matches the id column only when id parses as a uuid,
// otherwise postgres rejects the comparison.
func byIdentity(query *gorm.DB, id string) *gorm.DB {
	id = strings.TrimSpace(id)
	if parsed, err := uuid.Parse(id); err == nil {
		return query.Where("id = ? OR business_id = ?", parsed, id)
	}

	return query.Where("business_id = ?", id)
}

// toInchargerDomain converts a GORM model to a domain entity.
func toInchargerDomain(data *model.InchargerModel) *entity.Incharger {
	if data == nil {
		return nil
	}

	return &entity.Incharger{
		ID:          data.ID,
		BusinessID:  data.BusinessID,
		Name:        data.Name,
		PhoneNumber: data.PhoneNumber,
		Area:        data.Area,
		CreatedAt:   data.CreatedAt,
	}
}

// toLabourDomain converts a GORM model to a domain entity.
func toLabourDomain(data *model.LabourModel) *entity.Labour {
	if data == nil {
		return nil
	}

	return &entity.Labour{
		ID:          data.ID,
		BusinessID:  data.BusinessID,
		Name:        data.Name,
		PhoneNumber: data.PhoneNumber,
		InchargerID: data.InchargerID,
		Streets:     []string(data.Streets),
		DeviceToken: data.DeviceToken,
		CreatedAt:   data.CreatedAt,
	}
}
