package service

import (
	"context"
	"time"
)

// AllotmentEventType names a lifecycle step of an allotment.
type AllotmentEventType string

const (
	AllotmentCreated      AllotmentEventType = "allotment.created"
	AllotmentCollected    AllotmentEventType = "allotment.collected"
	AllotmentAcknowledged AllotmentEventType = "allotment.acknowledged"
	AllotmentConfirmed    AllotmentEventType = "allotment.confirmed"
	AllotmentCompleted    AllotmentEventType = "allotment.completed"
	AllotmentRemoved      AllotmentEventType = "allotment.removed"
)

// AllotmentEvent is emitted after an allotment change has been committed.
type AllotmentEvent struct {
	RequestID   string             `json:"request_id,omitempty"` // For distributed tracing
	AllotmentID string             `json:"allotment_id,omitempty"`
	Type        AllotmentEventType `json:"type"`
	Status      string             `json:"status,omitempty"`
	LabourID    string             `json:"labour_id"`
	InchargerID string             `json:"incharger_id"`
	Street      string             `json:"street"`
	Date        string             `json:"date"`
	UserIDs     []string           `json:"user_ids,omitempty"` // residents touched by the change
	Count       int64              `json:"count,omitempty"`    // removals only
	OccurredAt  time.Time          `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAllotmentEvent publishes one allotment lifecycle event
	PublishAllotmentEvent(ctx context.Context, event *AllotmentEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
