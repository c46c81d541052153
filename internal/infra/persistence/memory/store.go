// Package memory is an in-process storage driver for local runs and tests.
// It keeps the same contracts as the postgres driver, including versioned
// allotment writes and transactional rollback.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var errDuplicateKey = errors.New("duplicate key")

type statusKey struct {
	userID string
	street string
}

func newStatusKey(userID, street string) statusKey {
	return statusKey{userID: userID, street: strings.ToLower(strings.TrimSpace(street))}
}

// state is everything a transaction may need to restore.
type state struct {
	allotments map[uuid.UUID]*entity.Allotment
	order      []uuid.UUID
	statuses   map[statusKey]entity.ResidentStatus
}

func (s state) clone() state {
	allotments := make(map[uuid.UUID]*entity.Allotment, len(s.allotments))
	for id, a := range s.allotments {
		allotments[id] = a.Clone()
	}

	return state{
		allotments: allotments,
		order:      slices.Clone(s.order),
		statuses:   maps.Clone(s.statuses),
	}
}

// Store holds all rows of the memory driver.
type Store struct {
	mu    sync.RWMutex
	state state

	inchargers []*entity.Incharger
	labours    []*entity.Labour

	// txMu serializes transactions so a rollback never discards another
	// transaction's committed work.
	txMu sync.Mutex

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: state{
			allotments: make(map[uuid.UUID]*entity.Allotment),
			statuses:   make(map[statusKey]entity.ResidentStatus),
		},
		now: time.Now,
	}
}

// AddIncharger registers an incharger in the roster.
func (s *Store) AddIncharger(i *entity.Incharger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *i
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	*i = cp
	s.inchargers = append(s.inchargers, &cp)
}

// AddLabour registers a labour in the roster. Roster order is insertion order.
func (s *Store) AddLabour(l *entity.Labour) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	cp.Streets = slices.Clone(l.Streets)
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	*l = cp
	s.labours = append(s.labours, &cp)
}

// Repositories returns repositories backed by the store outside any transaction.
func (s *Store) Repositories() repository.RepositoryFactory {
	return &factory{store: s}
}

type factory struct {
	store *Store
}

func (f *factory) NewAllotmentRepository() repository.AllotmentRepository {
	return &allotmentRepository{store: f.store}
}

func (f *factory) NewResidentStatusRepository() repository.ResidentStatusRepository {
	return &residentStatusRepository{store: f.store}
}

func (f *factory) NewRosterRepository() repository.RosterRepository {
	return &rosterRepository{store: f.store}
}

// transactionManager restores a snapshot when the callback fails.
type transactionManager struct {
	store *Store
}

// NewTransactionManager creates a TransactionManager over the store.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

// Execute runs fn and rolls every change back if it returns an error or panics.
func (tm *transactionManager) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	tm.store.mu.RLock()
	snapshot := tm.store.state.clone()
	tm.store.mu.RUnlock()

	rollback := func() {
		tm.store.mu.Lock()
		tm.store.state = snapshot
		tm.store.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(tm.store.Repositories()); err != nil {
		rollback()

		return err
	}

	return nil
}
