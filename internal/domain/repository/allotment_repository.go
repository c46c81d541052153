// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
)

// AllotmentFilter selects allotments. Empty fields do not constrain the
// result; ID lists match when the stored id equals any element.
type AllotmentFilter struct {
	InchargerIDs []string
	LabourIDs    []string

	// Street is compared case-insensitively.
	Street string
	Date   string
	Time   string

	Statuses      []entity.AllotmentStatus
	ExcludeStatus entity.AllotmentStatus
}

// AllotmentRepository defines the interface for allotment persistence.
type AllotmentRepository interface {
	// Create persists a new allotment with its entries.
	Create(ctx context.Context, allotment *entity.Allotment) error

	// FindByID retrieves an allotment. Returns ErrAllotmentNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Allotment, error)

	// Update writes the allotment only if the stored version still equals
	// allotment.Version, then bumps it. A stale version returns
	// ErrAllotmentVersionConflict and writes nothing.
	Update(ctx context.Context, allotment *entity.Allotment) error

	// Find lists allotments matching the filter ordered by creation time.
	Find(ctx context.Context, filter AllotmentFilter) ([]*entity.Allotment, error)

	// Delete removes every allotment matching the filter and reports how many went.
	Delete(ctx context.Context, filter AllotmentFilter) (int64, error)
}
