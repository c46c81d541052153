package impl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cleancity/config"
	deliverycontext "cleancity/internal/delivery/context"
	"cleancity/internal/domain/entity"
	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/repository"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"
	"cleancity/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const dateLayout = "2006-01-02"

// slotNamespace derives lock ids for (labour, date, time) slots so two
// concurrent creations for the same slot serialize.
var slotNamespace = uuid.MustParse("5b0f8a4e-3c1d-4e8b-9a57-7c2f61d0b9e3")

type allotmentService struct {
	txManager         repository.TransactionManager
	locker            service.AllotmentLocker
	publisher         service.EventPublisher
	notifier          service.NotificationService
	logger            *slog.Logger
	policy            entity.CollectionPolicy
	strictCoordinates bool
	now               func() time.Time
}

// AllotmentServiceParams holds dependencies for AllotmentService, injected by Fx.
type AllotmentServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Locker    service.AllotmentLocker
	Publisher service.EventPublisher
	Notifier  service.NotificationService
	Config    *config.Config
	Logger    *slog.Logger
}

// NewAllotmentService creates the allotment lifecycle use case
func NewAllotmentService(params AllotmentServiceParams) (usecase.AllotmentUsecase, error) {
	var policyName string
	var strict bool
	if params.Config.Allotment != nil {
		policyName = params.Config.Allotment.CollectionPolicy
		strict = params.Config.Allotment.StrictCoordinates
	}

	policy, err := entity.ParseCollectionPolicy(policyName)
	if err != nil {
		return nil, errors.Wrap(err, "allotment.collectionPolicy")
	}

	return &allotmentService{
		txManager:         params.TxManager,
		locker:            params.Locker,
		publisher:         params.Publisher,
		notifier:          params.Notifier,
		logger:            params.Logger,
		policy:            policy,
		strictCoordinates: strict,
		now:               time.Now,
	}, nil
}

// CreateAllotment validates the request, resolves the roster members and
// persists a new allotment unless the labour already has an active one for
// the same slot.
func (s *allotmentService) CreateAllotment(ctx context.Context, actor entity.Actor, input *usecase.CreateAllotmentInput) (*entity.Allotment, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger)

	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	if _, err := entity.NormalizeStatusToken(input.Status); err != nil {
		return nil, err
	}

	entries, err := s.buildEntries(input.LocationData)
	if err != nil {
		return nil, err
	}

	var incharger *entity.Incharger
	var labour *entity.Labour
	err = s.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		roster := repos.NewRosterRepository()

		var err error
		if incharger, err = roster.FindIncharger(ctx, input.InchargerID); err != nil {
			return err
		}
		labour, err = roster.FindLabour(ctx, input.LabourID)

		return err
	})
	if err != nil {
		return nil, err
	}

	if !actor.Is(entity.RoleIncharger) || !incharger.Matches(actor.ID) {
		return nil, domainerrors.ErrForbidden.WithDetails("allotments can only be created by their incharger")
	}

	unlock, err := s.locker.Lock(ctx, slotLockID(labour.ID, input.Date, input.Time))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var allotment *entity.Allotment
	err = s.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		allotmentRepo := repos.NewAllotmentRepository()

		active, err := allotmentRepo.Find(ctx, repository.AllotmentFilter{
			LabourIDs:     labour.Keys(),
			Date:          input.Date,
			Time:          input.Time,
			ExcludeStatus: entity.AllotmentStatusCollected,
		})
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return domainerrors.ErrActiveAllotmentExists.WithDetails(
				"labour " + input.LabourID + " on " + input.Date + " " + input.Time)
		}

		if err := s.fillTodayStatus(ctx, repos.NewResidentStatusRepository(), input.Street, entries); err != nil {
			return err
		}

		allotment, err = entity.NewAllotment(entity.NewAllotmentParams{
			ID:          uuid.New(),
			Incharger:   incharger,
			Labour:      labour,
			InchargerID: input.InchargerID,
			LabourID:    input.LabourID,
			Street:      input.Street,
			Date:        input.Date,
			Time:        input.Time,
			Entries:     entries,
			Now:         s.now().UTC(),
		})
		if err != nil {
			return err
		}

		return allotmentRepo.Create(ctx, allotment)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Allotment created",
		slog.String("allotment_id", allotment.ID.String()),
		slog.String("labour_id", allotment.LabourID),
		slog.String("street", allotment.Street),
		slog.Int("residents", len(allotment.LocationData)),
	)

	s.publish(ctx, s.event(ctx, service.AllotmentCreated, allotment, nil))

	if labour.DeviceToken != "" {
		if err := s.notifier.NotifyAssignment(ctx, labour.DeviceToken, allotment); err != nil {
			logger.Warn("Failed to notify labour of assignment",
				slog.String("allotment_id", allotment.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return allotment, nil
}

// CollectWaste applies the collection policy to one entry or, with MarkAll,
// to every collectable entry.
func (s *allotmentService) CollectWaste(ctx context.Context, actor entity.Actor, input *usecase.CollectInput) (*usecase.CollectResult, error) {
	if input.AllotmentID == uuid.Nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("allotmentId is required")
	}
	if !input.MarkAll && strings.TrimSpace(input.UserID) == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("userId is required unless markAll is set")
	}
	if !actor.Is(entity.RoleLabour) {
		return nil, domainerrors.ErrForbidden.WithDetails("only labour can collect")
	}

	collect := input.Collected == nil || *input.Collected

	var collected []string
	allotment, changed, err := s.mutate(ctx, input.AllotmentID, func(ctx context.Context, repos repository.RepositoryFactory, a *entity.Allotment) (bool, error) {
		keys, err := labourKeys(ctx, repos.NewRosterRepository(), actor.ID)
		if err != nil {
			return false, err
		}
		if !keys.Matches(a.LabourID) {
			return false, domainerrors.ErrLabourNotAssigned.WithDetails("allotment " + a.ID.String())
		}
		if a.IsCompleted() {
			return false, domainerrors.ErrAllotmentCompleted
		}

		now := s.now().UTC()
		switch {
		case input.MarkAll:
			if collected, err = a.CollectAll(s.policy, now); err != nil {
				return false, err
			}
		case !collect:
			if _, ok := a.Entry(input.UserID); !ok {
				return false, domainerrors.ErrResidentNotInAllotment.WithDetails("userId " + input.UserID)
			}

			return false, nil
		default:
			if _, err := a.CollectEntry(input.UserID, s.policy, now); err != nil {
				return false, err
			}
			collected = []string{input.UserID}
		}

		if s.policy == entity.CollectionPolicyFlipToNo {
			statuses := repos.NewResidentStatusRepository()
			for _, userID := range collected {
				if err := statuses.SetTodayStatus(ctx, userID, a.Street, entity.TodayStatusNo); err != nil {
					return false, err
				}
			}
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, s.event(ctx, service.AllotmentCollected, allotment, collected))
	}

	return &usecase.CollectResult{Status: allotment.Status, Collected: collected}, nil
}

// AcknowledgeCollection marks the resident's entry acknowledged and clears
// their pending flag in the registry.
func (s *allotmentService) AcknowledgeCollection(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID, userID string) (entity.AllotmentStatus, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("userId is required")
	}

	allotment, changed, err := s.mutate(ctx, allotmentID, func(ctx context.Context, repos repository.RepositoryFactory, a *entity.Allotment) (bool, error) {
		if _, err := s.authorizeResidentAction(ctx, repos, actor, a, userID); err != nil {
			return false, err
		}

		wasCompleted := a.IsCompleted()
		if _, err := a.Acknowledge(userID, s.now().UTC()); err != nil {
			return false, err
		}
		if wasCompleted {
			return false, nil
		}

		if err := repos.NewResidentStatusRepository().SetTodayStatus(ctx, userID, a.Street, entity.TodayStatusNo); err != nil {
			return false, err
		}

		return true, nil
	})
	if err != nil {
		return "", err
	}

	if changed {
		s.publish(ctx, s.event(ctx, service.AllotmentAcknowledged, allotment, []string{userID}))
	}

	return allotment.Status, nil
}

// ConfirmCollection confirms the resident's entry and completes the
// allotment once every entry is settled.
func (s *allotmentService) ConfirmCollection(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID, userID string) (entity.AllotmentStatus, error) {
	if allotmentID == uuid.Nil || strings.TrimSpace(userID) == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("allotmentId and userId are required")
	}

	var completedNow bool
	allotment, changed, err := s.mutate(ctx, allotmentID, func(ctx context.Context, repos repository.RepositoryFactory, a *entity.Allotment) (bool, error) {
		by, err := s.authorizeResidentAction(ctx, repos, actor, a, userID)
		if err != nil {
			return false, err
		}

		wasCompleted := a.IsCompleted()
		if _, err := a.Confirm(userID, by, s.now().UTC()); err != nil {
			return false, err
		}
		completedNow = !wasCompleted && a.IsCompleted()

		return !wasCompleted, nil
	})
	if err != nil {
		return "", err
	}

	if changed {
		s.publish(ctx, s.event(ctx, service.AllotmentConfirmed, allotment, []string{userID}))
	}
	if completedNow {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).Info("Allotment completed",
			slog.String("allotment_id", allotment.ID.String()),
		)
		s.publish(ctx, s.event(ctx, service.AllotmentCompleted, allotment, nil))
	}

	return allotment.Status, nil
}

// RemoveAllotments deletes by incharger, labour, street and date. Both
// identifier forms of the incharger and labour match when they resolve.
func (s *allotmentService) RemoveAllotments(ctx context.Context, actor entity.Actor, input *usecase.RemoveAllotmentsInput) (int64, error) {
	if err := requireFields(map[string]string{
		"inchargerId": input.InchargerID,
		"labourId":    input.LabourID,
		"street":      input.Street,
		"date":        input.Date,
	}); err != nil {
		return 0, err
	}

	var deleted int64
	err := s.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		roster := repos.NewRosterRepository()

		inchargerIDs := entity.IdentityKeys{entity.CanonicalIdentity(input.InchargerID)}
		incharger, err := roster.FindIncharger(ctx, input.InchargerID)
		switch {
		case err == nil:
			inchargerIDs = incharger.Keys()
		case !errors.Is(err, domainerrors.ErrInchargerNotFound):
			return err
		}
		if !actor.Is(entity.RoleIncharger) || !inchargerIDs.Matches(actor.ID) {
			return domainerrors.ErrForbidden.WithDetails("allotments can only be removed by their incharger")
		}

		labourIDs, err := labourKeys(ctx, roster, input.LabourID)
		if err != nil {
			return err
		}

		deleted, err = repos.NewAllotmentRepository().Delete(ctx, repository.AllotmentFilter{
			InchargerIDs: inchargerIDs,
			LabourIDs:    labourIDs,
			Street:       input.Street,
			Date:         input.Date,
		})

		return err
	})
	if err != nil {
		return 0, err
	}

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Info("Allotments removed",
		slog.String("labour_id", input.LabourID),
		slog.String("street", input.Street),
		slog.String("date", input.Date),
		slog.Int64("deleted", deleted),
	)

	if deleted > 0 {
		s.publish(ctx, &service.AllotmentEvent{
			RequestID:   deliverycontext.GetRequestIDFromContext(ctx),
			Type:        service.AllotmentRemoved,
			LabourID:    input.LabourID,
			InchargerID: input.InchargerID,
			Street:      input.Street,
			Date:        input.Date,
			Count:       deleted,
			OccurredAt:  s.now().UTC(),
		})
	}

	return deleted, nil
}

type mutation func(ctx context.Context, repos repository.RepositoryFactory, a *entity.Allotment) (changed bool, err error)

// mutate runs fn on a fresh copy of the allotment under its lock and inside
// one transaction; the versioned update is skipped when fn reports no change.
func (s *allotmentService) mutate(ctx context.Context, id uuid.UUID, fn mutation) (*entity.Allotment, bool, error) {
	if id == uuid.Nil {
		return nil, false, domainerrors.ErrValidationFailed.WithDetails("allotmentId is required")
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, false, err
	}
	defer s.release(ctx, unlock)

	var result *entity.Allotment
	var changed bool
	err = s.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		repo := repos.NewAllotmentRepository()

		a, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if changed, err = fn(ctx, repos, a); err != nil {
			return err
		}
		if changed {
			if err := repo.Update(ctx, a); err != nil {
				return err
			}
		}
		result = a

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, changed, nil
}

func (s *allotmentService) release(ctx context.Context, unlock service.UnlockFunc) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).Warn("Failed to release allotment lock",
			slog.Any("error", err),
		)
	}
}

// authorizeResidentAction lets a resident act on their own entry and the
// owning incharger act on any entry. It returns the role to record.
func (s *allotmentService) authorizeResidentAction(ctx context.Context, repos repository.RepositoryFactory, actor entity.Actor, a *entity.Allotment, userID string) (entity.Role, error) {
	if actor.Is(entity.RoleUser) && actor.ID == userID {
		return entity.RoleUser, nil
	}

	if actor.Is(entity.RoleIncharger) {
		incharger, err := repos.NewRosterRepository().FindIncharger(ctx, actor.ID)
		if err != nil && !errors.Is(err, domainerrors.ErrInchargerNotFound) {
			return "", err
		}
		if a.OwnedBy(incharger) || a.InchargerID == actor.ID {
			return entity.RoleIncharger, nil
		}
	}

	return "", domainerrors.ErrForbidden.WithDetails("not allowed to act for resident " + userID)
}

// labourKeys resolves every identifier of a labour, falling back to the
// raw id when the roster does not know it.
func labourKeys(ctx context.Context, roster repository.RosterRepository, id string) (entity.IdentityKeys, error) {
	labour, err := roster.FindLabour(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrLabourNotFound) {
			return entity.IdentityKeys{entity.CanonicalIdentity(id)}, nil
		}

		return nil, err
	}

	return labour.Keys(), nil
}

func (s *allotmentService) fillTodayStatus(ctx context.Context, statuses repository.ResidentStatusRepository, street string, entries []entity.LocationEntry) error {
	for i := range entries {
		if entries[i].TodayStatus != "" {
			continue
		}

		status, err := statuses.FindTodayStatus(ctx, entries[i].UserID, street)
		switch {
		case err == nil:
			entries[i].TodayStatus = status.TodayStatus
		case errors.Is(err, repository.ErrResidentStatusNotFound):
			entries[i].TodayStatus = entity.TodayStatusNo
		default:
			return err
		}
	}

	return nil
}

func (s *allotmentService) buildEntries(inputs []usecase.LocationInput) ([]entity.LocationEntry, error) {
	entries := make([]entity.LocationEntry, 0, len(inputs))
	for i, in := range inputs {
		userID := strings.TrimSpace(in.UserID)
		if userID == "" {
			return nil, domainerrors.ErrValidationFailed.WithDetails("locationData[" + strconv.Itoa(i) + "].userId is required")
		}

		lat, lng, err := resolveCoordinates(in.Latitude, in.Longitude, s.strictCoordinates)
		if err != nil {
			return nil, err
		}

		entry := entity.LocationEntry{
			UserID:      userID,
			UserAddress: orDefault(in.UserAddress, entity.UnknownAddress),
			Username:    orDefault(in.Username, entity.UnknownUsername),
			Contact:     orDefault(in.Contact, entity.UnknownContact),
			Latitude:    lat,
			Longitude:   lng,
		}

		if strings.TrimSpace(in.TodayStatus) != "" {
			status, ok := entity.ParseTodayStatus(in.TodayStatus)
			if !ok {
				return nil, domainerrors.ErrValidationFailed.WithDetails("todayStatus must be YES or NO for userId " + userID)
			}
			entry.TodayStatus = status
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *allotmentService) event(ctx context.Context, typ service.AllotmentEventType, a *entity.Allotment, userIDs []string) *service.AllotmentEvent {
	return &service.AllotmentEvent{
		RequestID:   deliverycontext.GetRequestIDFromContext(ctx),
		AllotmentID: a.ID.String(),
		Type:        typ,
		Status:      a.Status.String(),
		LabourID:    a.LabourID,
		InchargerID: a.InchargerID,
		Street:      a.Street,
		Date:        a.Date,
		UserIDs:     userIDs,
		OccurredAt:  s.now().UTC(),
	}
}

// publish runs after commit; a failed publish never fails the request.
func (s *allotmentService) publish(ctx context.Context, event *service.AllotmentEvent) {
	if err := s.publisher.PublishAllotmentEvent(ctx, event); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, s.logger).Error("Failed to publish allotment event",
			slog.String("event_type", string(event.Type)),
			slog.String("allotment_id", event.AllotmentID),
			slog.Any("error", err),
		)
	}
}

func slotLockID(labourID uuid.UUID, date, tm string) uuid.UUID {
	return uuid.NewSHA1(slotNamespace, []byte(labourID.String()+"|"+date+"|"+tm))
}
