package service

import (
	"context"

	"github.com/google/uuid"
)

// UnlockFunc releases a lock obtained from AllotmentLocker.
type UnlockFunc func(ctx context.Context) error

// AllotmentLocker serializes read-modify-write cycles on one allotment.
type AllotmentLocker interface {
	// Lock blocks until the allotment is free or the wait budget is spent,
	// in which case it returns ErrAllotmentBusy.
	Lock(ctx context.Context, allotmentID uuid.UUID) (UnlockFunc, error)
}
