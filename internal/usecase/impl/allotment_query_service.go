package impl

import (
	"context"
	"io"
	"log/slog"
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
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"go.uber.org/fx"
)

type allotmentQueryService struct {
	allotmentRepo repository.AllotmentRepository
	rosterRepo    repository.RosterRepository
	qrcodeService service.QRCodeService
	reportService service.ReportService
	logger        *slog.Logger
	location      *time.Location
	now           func() time.Time
}

// AllotmentQueryServiceParams holds dependencies for AllotmentQueryService, injected by Fx.
type AllotmentQueryServiceParams struct {
	fx.In

	AllotmentRepo repository.AllotmentRepository
	RosterRepo    repository.RosterRepository
	QRCodeService service.QRCodeService
	ReportService service.ReportService
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAllotmentQueryService creates the allotment projection use case
func NewAllotmentQueryService(params AllotmentQueryServiceParams) (usecase.AllotmentQueryUsecase, error) {
	loc, err := params.Config.Allotment.Location()
	if err != nil {
		return nil, err
	}

	return &allotmentQueryService{
		allotmentRepo: params.AllotmentRepo,
		rosterRepo:    params.RosterRepo,
		qrcodeService: params.QRCodeService,
		reportService: params.ReportService,
		logger:        params.Logger,
		location:      loc,
		now:           time.Now,
	}, nil
}

// GetAllotment returns one allotment
func (s *allotmentQueryService) GetAllotment(ctx context.Context, allotmentID uuid.UUID) (*entity.Allotment, error) {
	return s.allotmentRepo.FindByID(ctx, allotmentID)
}

// PendingByStreet lists the incharger's allotments on the street that are
// not Collected. An empty inchargerID means the caller.
func (s *allotmentQueryService) PendingByStreet(ctx context.Context, actor entity.Actor, inchargerID, street string) ([]*entity.Allotment, error) {
	street = strings.TrimSpace(street)
	if street == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("street is required")
	}

	incharger, err := s.ownIncharger(ctx, actor, inchargerID)
	if err != nil {
		return nil, err
	}

	return s.allotmentRepo.Find(ctx, repository.AllotmentFilter{
		InchargerIDs:  incharger.Keys(),
		Street:        street,
		ExcludeStatus: entity.AllotmentStatusCollected,
	})
}

// PendingByLabour lists the labour's allotments that are not Collected
func (s *allotmentQueryService) PendingByLabour(ctx context.Context, actor entity.Actor, labourID string) ([]*entity.Allotment, error) {
	labour, err := s.rosterRepo.FindLabour(ctx, strings.TrimSpace(labourID))
	if err != nil {
		return nil, err
	}

	if err := s.canViewLabour(ctx, actor, labour); err != nil {
		return nil, err
	}

	return s.allotmentRepo.Find(ctx, repository.AllotmentFilter{
		LabourIDs:     labour.Keys(),
		ExcludeStatus: entity.AllotmentStatusCollected,
	})
}

// UnallocatedLabour evaluates, in roster order, which of the incharger's
// labour can take work today: those who finished an allotment today, plus
// those with no Pending allotment and no allotment collected on another day.
func (s *allotmentQueryService) UnallocatedLabour(ctx context.Context, actor entity.Actor, inchargerID string) ([]*entity.Labour, error) {
	incharger, err := s.ownIncharger(ctx, actor, inchargerID)
	if err != nil {
		return nil, err
	}

	labours, err := s.rosterRepo.ListLabourByIncharger(ctx, incharger.ID)
	if err != nil {
		return nil, err
	}
	if len(labours) == 0 {
		return []*entity.Labour{}, nil
	}

	var ids []string
	for _, l := range labours {
		ids = append(ids, l.Keys()...)
	}

	allotments, err := s.allotmentRepo.Find(ctx, repository.AllotmentFilter{
		LabourIDs: ids,
		Statuses:  []entity.AllotmentStatus{entity.AllotmentStatusPending, entity.AllotmentStatusCollected},
	})
	if err != nil {
		return nil, err
	}

	today := s.today()
	unallocated := make([]*entity.Labour, 0, len(labours))
	for _, l := range labours {
		if labourIsFree(l, allotments, today) {
			unallocated = append(unallocated, l)
		}
	}

	return unallocated, nil
}

func labourIsFree(l *entity.Labour, allotments []*entity.Allotment, today string) bool {
	busy := false
	for _, a := range allotments {
		if !a.AssignedTo(l) {
			continue
		}

		if a.Status == entity.AllotmentStatusCollected && a.Date == today {
			return true
		}
		// Pending anywhere, or Collected on another day
		busy = true
	}

	return !busy
}

// RouteSummary lists every stop in allotment order and measures the path
// through the located pending stops.
func (s *allotmentQueryService) RouteSummary(ctx context.Context, allotmentID uuid.UUID) (*usecase.RouteSummary, error) {
	a, err := s.allotmentRepo.FindByID(ctx, allotmentID)
	if err != nil {
		return nil, err
	}

	summary := &usecase.RouteSummary{
		AllotmentID: a.ID,
		Street:      a.Street,
		Status:      a.Status,
		Stops:       make([]usecase.RouteStop, 0, len(a.LocationData)),
	}

	var path orb.LineString
	for _, e := range a.LocationData {
		point := orb.Point{e.Longitude, e.Latitude}
		stop := usecase.RouteStop{
			UserID:      e.UserID,
			Username:    e.Username,
			UserAddress: e.UserAddress,
			Position:    toRoutePoint(point),
			Pending:     e.Collectable(),
			Located:     !point.Equal(orb.Point{}),
		}
		summary.Stops = append(summary.Stops, stop)

		if stop.Pending {
			summary.PendingStops++
			if stop.Located {
				path = append(path, point)
			}
		}
	}

	if len(path) == 0 {
		return summary, nil
	}

	bound := path.Bound()
	sw, ne := toRoutePoint(bound.Min), toRoutePoint(bound.Max)
	summary.SouthWest, summary.NorthEast = &sw, &ne

	centroid, _ := planar.CentroidArea(orb.MultiPoint(path))
	c := toRoutePoint(centroid)
	summary.Centroid = &c

	if len(path) > 1 {
		summary.LengthMeters = geo.LengthHaversine(path)
	}

	return summary, nil
}

// AcknowledgeQR renders the acknowledge code for the assigned labour to show
func (s *allotmentQueryService) AcknowledgeQR(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID) ([]byte, error) {
	a, err := s.allotmentRepo.FindByID(ctx, allotmentID)
	if err != nil {
		return nil, err
	}

	labour, err := s.rosterRepo.FindLabour(ctx, actor.ID)
	if err != nil && !errors.Is(err, domainerrors.ErrLabourNotFound) {
		return nil, err
	}
	if !a.AssignedTo(labour) && a.LabourID != actor.ID {
		return nil, domainerrors.ErrLabourNotAssigned.WithDetails("allotment " + a.ID.String())
	}

	png, err := s.qrcodeService.GenerateAcknowledgeQR(a.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate acknowledge QR")
	}

	return png, nil
}

// DailyReport writes the incharger's allotments of the date. An empty date
// means today in the configured time zone.
func (s *allotmentQueryService) DailyReport(ctx context.Context, actor entity.Actor, inchargerID, date string, w io.Writer) error {
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.today()
	}
	if err := validateDate(date); err != nil {
		return err
	}

	incharger, err := s.ownIncharger(ctx, actor, inchargerID)
	if err != nil {
		return err
	}

	allotments, err := s.allotmentRepo.Find(ctx, repository.AllotmentFilter{
		InchargerIDs: incharger.Keys(),
		Date:         date,
	})
	if err != nil {
		return err
	}

	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Debug("Writing daily report",
		slog.String("incharger_id", incharger.ID.String()),
		slog.String("date", date),
		slog.Int("allotments", len(allotments)),
	)

	return s.reportService.WriteDailyReport(w, incharger, date, allotments)
}

// ownIncharger resolves the incharger and checks the caller is that incharger.
func (s *allotmentQueryService) ownIncharger(ctx context.Context, actor entity.Actor, inchargerID string) (*entity.Incharger, error) {
	inchargerID = strings.TrimSpace(inchargerID)
	if inchargerID == "" {
		inchargerID = actor.ID
	}

	incharger, err := s.rosterRepo.FindIncharger(ctx, inchargerID)
	if err != nil {
		return nil, err
	}

	if !actor.Is(entity.RoleIncharger) || !incharger.Matches(actor.ID) {
		return nil, domainerrors.ErrForbidden.WithDetails("incharger " + inchargerID)
	}

	return incharger, nil
}

// canViewLabour admits the labour themself and the incharger they report to.
func (s *allotmentQueryService) canViewLabour(ctx context.Context, actor entity.Actor, labour *entity.Labour) error {
	if actor.Is(entity.RoleLabour) && labour.Matches(actor.ID) {
		return nil
	}

	if actor.Is(entity.RoleIncharger) {
		incharger, err := s.rosterRepo.FindIncharger(ctx, actor.ID)
		switch {
		case err == nil:
			if incharger.ID == labour.InchargerID {
				return nil
			}
		case !errors.Is(err, domainerrors.ErrInchargerNotFound):
			return err
		}
	}

	return domainerrors.ErrForbidden.WithDetails("labour " + labour.BusinessID)
}

func (s *allotmentQueryService) today() string {
	return s.now().In(s.location).Format(dateLayout)
}

func toRoutePoint(p orb.Point) usecase.RoutePoint {
	return usecase.RoutePoint{Latitude: p.Lat(), Longitude: p.Lon()}
}
