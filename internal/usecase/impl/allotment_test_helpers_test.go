package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cleancity/config"
	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/service"
	"cleancity/internal/infra/lock"
	"cleancity/internal/infra/persistence/memory"
	"cleancity/internal/infra/qrcode"
	"cleancity/internal/infra/report"
	mockSvc "cleancity/internal/mocks/service"
	"cleancity/internal/usecase"

	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// eventRecorder captures the events handed to the publisher mock.
type eventRecorder struct {
	mu     sync.Mutex
	events []*service.AllotmentEvent
}

func (r *eventRecorder) types() []service.AllotmentEventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]service.AllotmentEventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}

	return types
}

func (r *eventRecorder) last() *service.AllotmentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return nil
	}

	return r.events[len(r.events)-1]
}

type testFixture struct {
	store     *memory.Store
	svc       *allotmentService
	query     *allotmentQueryService
	publisher *mockSvc.MockEventPublisher
	notifier  *mockSvc.MockNotificationService
	recorder  *eventRecorder

	incharger *entity.Incharger
	labour    *entity.Labour
	other     *entity.Labour

	inchargerActor entity.Actor
	labourActor    entity.Actor
}

func newTestFixture(t *testing.T, policy entity.CollectionPolicy) *testFixture {
	t.Helper()

	store := memory.NewStore()

	incharger := &entity.Incharger{BusinessID: "INC-1", Name: "Meena", PhoneNumber: "9000000000"}
	store.AddIncharger(incharger)
	labour := &entity.Labour{BusinessID: "L1", Name: "Ravi", PhoneNumber: "9000000001", InchargerID: incharger.ID, DeviceToken: "device-l1"}
	store.AddLabour(labour)
	other := &entity.Labour{BusinessID: "L2", Name: "Sita", PhoneNumber: "9000000002", InchargerID: incharger.ID}
	store.AddLabour(other)

	publisher := mockSvc.NewMockEventPublisher(t)
	recorder := &eventRecorder{}
	publisher.EXPECT().PublishAllotmentEvent(mock.Anything, mock.Anything).
		Run(func(_ context.Context, event *service.AllotmentEvent) {
			recorder.mu.Lock()
			defer recorder.mu.Unlock()
			recorder.events = append(recorder.events, event)
		}).
		Return(nil).
		Maybe()

	notifier := mockSvc.NewMockNotificationService(t)

	repos := store.Repositories()
	svc := &allotmentService{
		txManager: memory.NewTransactionManager(store),
		locker:    lock.NewMemoryLocker(time.Second),
		publisher: publisher,
		notifier:  notifier,
		logger:    newDiscardLogger(),
		policy:    policy,
		now:       func() time.Time { return fixedNow },
	}
	query := &allotmentQueryService{
		allotmentRepo: repos.NewAllotmentRepository(),
		rosterRepo:    repos.NewRosterRepository(),
		qrcodeService: qrcode.NewQRCodeService(256, "M"),
		reportService: report.NewXLSXReportService(),
		logger:        newDiscardLogger(),
		location:      time.UTC,
		now:           func() time.Time { return fixedNow },
	}

	return &testFixture{
		store:          store,
		svc:            svc,
		query:          query,
		publisher:      publisher,
		notifier:       notifier,
		recorder:       recorder,
		incharger:      incharger,
		labour:         labour,
		other:          other,
		inchargerActor: entity.Actor{ID: "INC-1", Roles: entity.Roles{entity.RoleIncharger}},
		labourActor:    entity.Actor{ID: "L1", Roles: entity.Roles{entity.RoleLabour}},
	}
}

func residentActor(userID string) entity.Actor {
	return entity.Actor{ID: userID, Roles: entity.Roles{entity.RoleUser}}
}

func residentAt(userID, todayStatus string, lat, lng float64) usecase.LocationInput {
	return usecase.LocationInput{
		UserID:      userID,
		Username:    "resident " + userID,
		TodayStatus: todayStatus,
		Latitude:    usecase.NewCoordinate(lat),
		Longitude:   usecase.NewCoordinate(lng),
	}
}

func createInput(labourID, date, tm string, entries ...usecase.LocationInput) *usecase.CreateAllotmentInput {
	return &usecase.CreateAllotmentInput{
		InchargerID:  "INC-1",
		LabourID:     labourID,
		Street:       "MG Road",
		Date:         date,
		Time:         tm,
		LocationData: entries,
	}
}

// mustCreate opens an allotment for L1 on MG Road and expects the labour push.
func (f *testFixture) mustCreate(t *testing.T, entries ...usecase.LocationInput) *entity.Allotment {
	t.Helper()

	f.notifier.EXPECT().NotifyAssignment(mock.Anything, "device-l1", mock.Anything).Return(nil).Once()

	a, err := f.svc.CreateAllotment(context.Background(), f.inchargerActor, createInput("L1", "2024-01-01", "09:00", entries...))
	if err != nil {
		t.Fatalf("create allotment: %v", err)
	}

	return a
}

func boolPtr(b bool) *bool {
	return &b
}

func newTestConfig(policy string) *config.Config {
	return &config.Config{
		Allotment: &config.AllotmentConfig{
			CollectionPolicy: policy,
			TimeZone:         "UTC",
		},
	}
}
