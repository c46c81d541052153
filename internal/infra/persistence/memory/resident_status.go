package memory

import (
	"context"

	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/repository"
)

type residentStatusRepository struct {
	store *Store
}

// NewResidentStatusRepository returns a resident registry over the store.
func NewResidentStatusRepository(store *Store) repository.ResidentStatusRepository {
	return &residentStatusRepository{store: store}
}

func (r *residentStatusRepository) FindTodayStatus(ctx context.Context, userID, street string) (*entity.ResidentStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	status, ok := r.store.state.statuses[newStatusKey(userID, street)]
	if !ok {
		return nil, repository.ErrResidentStatusNotFound
	}

	return &status, nil
}

func (r *residentStatusRepository) SetTodayStatus(ctx context.Context, userID, street string, status entity.TodayStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.state.statuses[newStatusKey(userID, street)] = entity.ResidentStatus{
		UserID:      userID,
		Street:      street,
		TodayStatus: status,
		UpdatedAt:   r.store.now(),
	}

	return nil
}
