package notification

import (
	"context"
	"log/slog"

	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type firebaseService struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFirebaseService creates a new Firebase notification service instance
func NewFirebaseService(ctx context.Context, projectID, credentialsPath string, logger *slog.Logger) (service.NotificationService, error) {
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return &firebaseService{
		client: client,
		logger: logger,
	}, nil
}

// NotifyAssignment sends one push message describing the allotment
func (s *firebaseService) NotifyAssignment(ctx context.Context, deviceToken string, allotment *entity.Allotment) error {
	if deviceToken == "" {
		return nil
	}

	if _, err := s.client.Send(ctx, assignmentMessage(deviceToken, allotment)); err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			s.logger.Warn("Labour device token rejected",
				slog.String("labour_id", allotment.LabourID),
			)

			return nil
		}

		return errors.Wrap(err, "failed to send notification")
	}

	return nil
}

func assignmentMessage(token string, a *entity.Allotment) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "New collection assigned",
			Body:  a.Street + " on " + a.Date + " at " + a.Time,
		},
		Data: map[string]string{
			"allotment_id": a.ID.String(),
			"street":       a.Street,
			"date":         a.Date,
			"time":         a.Time,
			"incharger":    a.InchargerName,
		},
	}
}

type noopService struct {
	logger *slog.Logger
}

// NewNoopService returns a notifier that drops every message
func NewNoopService(logger *slog.Logger) service.NotificationService {
	return &noopService{logger: logger}
}

func (s *noopService) NotifyAssignment(_ context.Context, _ string, allotment *entity.Allotment) error {
	s.logger.Debug("Push notifications disabled, skipping",
		slog.String("allotment_id", allotment.ID.String()),
	)

	return nil
}
