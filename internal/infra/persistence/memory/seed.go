package memory

import (
	"context"
	"strings"

	"cleancity/config"
	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NewSeededStore builds the store and loads storage.seed when present.
func NewSeededStore(cfg *config.Config) (*Store, error) {
	store := NewStore()
	if cfg.Storage == nil || cfg.Storage.Seed == nil {
		return store, nil
	}

	if err := Seed(context.Background(), store, cfg.Storage.Seed); err != nil {
		return nil, err
	}

	return store, nil
}

// Seed loads roster and registry rows into the store.
func Seed(ctx context.Context, store *Store, seed *config.SeedConfig) error {
	for _, in := range seed.Inchargers {
		id, err := parseOptionalUUID(in.ID)
		if err != nil {
			return errors.Wrapf(err, "seed incharger %q", in.BusinessID)
		}
		store.AddIncharger(&entity.Incharger{
			ID:          id,
			BusinessID:  in.BusinessID,
			Name:        in.Name,
			PhoneNumber: in.PhoneNumber,
			Area:        in.Area,
		})
	}

	roster := NewRosterRepository(store)
	for _, in := range seed.Labours {
		id, err := parseOptionalUUID(in.ID)
		if err != nil {
			return errors.Wrapf(err, "seed labour %q", in.BusinessID)
		}

		incharger, err := roster.FindIncharger(ctx, in.Incharger)
		if err != nil {
			return errors.Wrapf(err, "seed labour %q", in.BusinessID)
		}

		store.AddLabour(&entity.Labour{
			ID:          id,
			BusinessID:  in.BusinessID,
			Name:        in.Name,
			PhoneNumber: in.PhoneNumber,
			InchargerID: incharger.ID,
			Streets:     in.Streets,
			DeviceToken: in.DeviceToken,
		})
	}

	registry := NewResidentStatusRepository(store)
	for _, in := range seed.Residents {
		status, ok := entity.ParseTodayStatus(in.TodayStatus)
		if !ok {
			return errors.Errorf("seed resident %q: todayStatus must be YES or NO", in.UserID)
		}
		if err := registry.SetTodayStatus(ctx, in.UserID, in.Street, status); err != nil {
			return err
		}
	}

	return nil
}

func parseOptionalUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}

	return uuid.Parse(raw)
}
