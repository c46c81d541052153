package notification

import (
	"context"
	"log/slog"
	"testing"

	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentMessage(t *testing.T) {
	a := &entity.Allotment{
		ID:            uuid.New(),
		InchargerName: "Meena",
		Street:        "MG Road",
		Date:          "2024-01-01",
		Time:          "09:00",
	}

	msg := assignmentMessage("device-token", a)

	assert.Equal(t, "device-token", msg.Token)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "MG Road on 2024-01-01 at 09:00", msg.Notification.Body)
	assert.Equal(t, a.ID.String(), msg.Data["allotment_id"])
	assert.Equal(t, "Meena", msg.Data["incharger"])
}

func TestNoopService(t *testing.T) {
	svc := NewNoopService(slog.New(slog.DiscardHandler))

	err := svc.NotifyAssignment(context.Background(), "token", &entity.Allotment{ID: uuid.New()})
	assert.NoError(t, err)
}
