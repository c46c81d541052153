package memory

import (
	"context"
	"slices"
	"strings"

	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"

	"github.com/google/uuid"
)

type allotmentRepository struct {
	store *Store
}

// NewAllotmentRepository returns an allotment repository over the store.
func NewAllotmentRepository(store *Store) repository.AllotmentRepository {
	return &allotmentRepository{store: store}
}

func (r *allotmentRepository) Create(ctx context.Context, allotment *entity.Allotment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if allotment.ID == uuid.Nil {
		allotment.ID = uuid.New()
	}
	if _, exists := r.store.state.allotments[allotment.ID]; exists {
		return domainerrors.NewDatabaseExecuteError(errDuplicateKey, "allotment "+allotment.ID.String())
	}

	now := r.store.now()
	if allotment.CreatedAt.IsZero() {
		allotment.CreatedAt = now
	}
	if allotment.UpdatedAt.IsZero() {
		allotment.UpdatedAt = now
	}
	allotment.Version = 1

	r.store.state.allotments[allotment.ID] = allotment.Clone()
	r.store.state.order = append(r.store.state.order, allotment.ID)

	return nil
}

func (r *allotmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Allotment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.state.allotments[id]
	if !ok {
		return nil, domainerrors.ErrAllotmentNotFound
	}

	return stored.Clone(), nil
}

func (r *allotmentRepository) Update(ctx context.Context, allotment *entity.Allotment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.state.allotments[allotment.ID]
	if !ok || stored.Version != allotment.Version {
		return domainerrors.ErrAllotmentVersionConflict.WithDetails("allotment " + allotment.ID.String())
	}

	allotment.Version++
	r.store.state.allotments[allotment.ID] = allotment.Clone()

	return nil
}

func (r *allotmentRepository) Find(ctx context.Context, filter repository.AllotmentFilter) ([]*entity.Allotment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.Allotment
	for _, id := range r.store.state.order {
		a := r.store.state.allotments[id]
		if matches(a, filter) {
			out = append(out, a.Clone())
		}
	}

	return out, nil
}

func (r *allotmentRepository) Delete(ctx context.Context, filter repository.AllotmentFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	kept := r.store.state.order[:0:0]
	for _, id := range r.store.state.order {
		if matches(r.store.state.allotments[id], filter) {
			delete(r.store.state.allotments, id)
			deleted++

			continue
		}
		kept = append(kept, id)
	}
	r.store.state.order = kept

	return deleted, nil
}

func matches(a *entity.Allotment, f repository.AllotmentFilter) bool {
	if len(f.InchargerIDs) > 0 && !slices.Contains(f.InchargerIDs, a.InchargerID) {
		return false
	}
	if len(f.LabourIDs) > 0 && !slices.Contains(f.LabourIDs, a.LabourID) {
		return false
	}
	if street := strings.TrimSpace(f.Street); street != "" && !strings.EqualFold(street, a.Street) {
		return false
	}
	if f.Date != "" && f.Date != a.Date {
		return false
	}
	if f.Time != "" && f.Time != a.Time {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	if f.ExcludeStatus != "" && f.ExcludeStatus == a.Status {
		return false
	}

	return true
}
