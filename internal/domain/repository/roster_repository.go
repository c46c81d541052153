package repository

import (
	"context"

	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
)

// RosterRepository is the read side of the labour and incharger directory.
// Lookups accept either the internal id or the business id.
type RosterRepository interface {
	// FindIncharger resolves an incharger. Returns ErrInchargerNotFound when absent.
	FindIncharger(ctx context.Context, id string) (*entity.Incharger, error)

	// FindLabour resolves a labour. Returns ErrLabourNotFound when absent.
	FindLabour(ctx context.Context, id string) (*entity.Labour, error)

	// ListLabourByIncharger returns the incharger's labour in roster order.
	ListLabourByIncharger(ctx context.Context, inchargerID uuid.UUID) ([]*entity.Labour, error)
}
