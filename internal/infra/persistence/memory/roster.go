package memory

import (
	"context"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"

	"github.com/google/uuid"
)

type rosterRepository struct {
	store *Store
}

// NewRosterRepository returns a roster repository over the store.
func NewRosterRepository(store *Store) repository.RosterRepository {
	return &rosterRepository{store: store}
}

func (r *rosterRepository) FindIncharger(ctx context.Context, id string) (*entity.Incharger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, i := range r.store.inchargers {
		if i.Matches(id) {
			cp := *i

			return &cp, nil
		}
	}

	return nil, domainerrors.ErrInchargerNotFound.WithDetails("id " + id)
}

func (r *rosterRepository) FindLabour(ctx context.Context, id string) (*entity.Labour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, l := range r.store.labours {
		if l.Matches(id) {
			cp := *l

			return &cp, nil
		}
	}

	return nil, domainerrors.ErrLabourNotFound.WithDetails("id " + id)
}

func (r *rosterRepository) ListLabourByIncharger(ctx context.Context, inchargerID uuid.UUID) ([]*entity.Labour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.Labour
	for _, l := range r.store.labours {
		if l.InchargerID == inchargerID {
			cp := *l
			out = append(out, &cp)
		}
	}

	return out, nil
}
