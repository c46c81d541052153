package service

import (
	"context"

	"cleancity/internal/domain/entity"
)

// NotificationService defines the interface for push notification services
type NotificationService interface {
	// NotifyAssignment pushes a new allotment to the assigned labour's device
	NotifyAssignment(ctx context.Context, deviceToken string, allotment *entity.Allotment) error
}
