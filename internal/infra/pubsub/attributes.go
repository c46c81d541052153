package pubsub

import (
	"cleancity/internal/domain/service"
)

// eventAttributes are the message attributes subscribers filter on.
func eventAttributes(event *service.AllotmentEvent) map[string]string {
	attributes := map[string]string{
		"event_type":   string(event.Type),
		"allotment_id": event.AllotmentID,
		"labour_id":    event.LabourID,
		"incharger_id": event.InchargerID,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}

// messageID identifies an event for push-style consumers.
func messageID(event *service.AllotmentEvent) string {
	id := event.AllotmentID
	if id == "" {
		id = event.LabourID + "/" + event.Date
	}

	return id + ":" + string(event.Type) + ":" + event.OccurredAt.UTC().Format("20060102T150405.000000000")
}
