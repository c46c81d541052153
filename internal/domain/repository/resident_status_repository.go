package repository

import (
	"context"

	"cleancity/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrResidentStatusNotFound is returned when the registry has no flag for a resident.
var ErrResidentStatusNotFound = errors.New("resident status not found")

// ResidentStatusRepository reads and writes the per-resident today flag.
type ResidentStatusRepository interface {
	// FindTodayStatus returns the flag for the resident on the street.
	FindTodayStatus(ctx context.Context, userID, street string) (*entity.ResidentStatus, error)

	// SetTodayStatus upserts the flag for the resident on the street.
	SetTodayStatus(ctx context.Context, userID, street string, status entity.TodayStatus) error
}
