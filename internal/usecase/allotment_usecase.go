package usecase

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
)

// AllotmentUsecase drives the allotment lifecycle. Every mutation runs under
// the allotment's lock inside one transaction.
type AllotmentUsecase interface {
	// CreateAllotment assigns a labour to a street for a date and time
	CreateAllotment(ctx context.Context, actor entity.Actor, input *CreateAllotmentInput) (*entity.Allotment, error)

	// CollectWaste records labour pickups for one resident or the whole allotment
	CollectWaste(ctx context.Context, actor entity.Actor, input *CollectInput) (*CollectResult, error)

	// AcknowledgeCollection records a resident's acknowledgment of a pickup
	AcknowledgeCollection(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID, userID string) (entity.AllotmentStatus, error)

	// ConfirmCollection records a resident's or incharger's confirmation
	ConfirmCollection(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID, userID string) (entity.AllotmentStatus, error)

	// RemoveAllotments deletes the allotments of a labour on a street and date
	RemoveAllotments(ctx context.Context, actor entity.Actor, input *RemoveAllotmentsInput) (int64, error)
}

// AllotmentQueryUsecase builds read views over allotments
type AllotmentQueryUsecase interface {
	// GetAllotment returns one allotment
	GetAllotment(ctx context.Context, allotmentID uuid.UUID) (*entity.Allotment, error)

	// PendingByStreet lists an incharger's open allotments on a street
	PendingByStreet(ctx context.Context, actor entity.Actor, inchargerID, street string) ([]*entity.Allotment, error)

	// PendingByLabour lists a labour's open allotments; visible to the labour
	// and to their incharger
	PendingByLabour(ctx context.Context, actor entity.Actor, labourID string) ([]*entity.Allotment, error)

	// UnallocatedLabour lists the incharger's labour free to be assigned today
	UnallocatedLabour(ctx context.Context, actor entity.Actor, inchargerID string) ([]*entity.Labour, error)

	// RouteSummary describes the pickup route of an allotment
	RouteSummary(ctx context.Context, allotmentID uuid.UUID) (*RouteSummary, error)

	// AcknowledgeQR renders the QR code residents scan to acknowledge
	AcknowledgeQR(ctx context.Context, actor entity.Actor, allotmentID uuid.UUID) ([]byte, error)

	// DailyReport writes the incharger's allotments of a date as a spreadsheet
	DailyReport(ctx context.Context, actor entity.Actor, inchargerID, date string, w io.Writer) error
}

// CreateAllotmentInput is the request to open an allotment
type CreateAllotmentInput struct {
	InchargerID  string
	LabourID     string
	Street       string
	Date         string
	Time         string
	Status       string
	LocationData []LocationInput
}

// LocationInput is one resident attached at creation
type LocationInput struct {
	UserID      string
	UserAddress string
	Username    string
	Contact     string
	Latitude    Coordinate
	Longitude   Coordinate
	// TodayStatus is optional; empty reads the resident registry
	TodayStatus string
}

// CollectInput is a labour collection report
type CollectInput struct {
	AllotmentID uuid.UUID
	UserID      string
	// Collected defaults to true; false only reports the current status
	Collected *bool
	MarkAll   bool
}

// CollectResult is the outcome of a collection report
type CollectResult struct {
	Status    entity.AllotmentStatus
	Collected []string
}

// RemoveAllotmentsInput selects allotments to delete
type RemoveAllotmentsInput struct {
	InchargerID string
	LabourID    string
	Street      string
	Date        string
}

// RoutePoint is a WGS84 position
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteStop is one resident on the route, in allotment order
type RouteStop struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	UserAddress string     `json:"userAddress"`
	Position    RoutePoint `json:"position"`
	Pending     bool       `json:"pending"`
	Located     bool       `json:"located"`
}

// RouteSummary is the geometry of an allotment's pending pickups
type RouteSummary struct {
	AllotmentID  uuid.UUID              `json:"allotmentId"`
	Street       string                 `json:"street"`
	Status       entity.AllotmentStatus `json:"status"`
	Stops        []RouteStop            `json:"stops"`
	PendingStops int                    `json:"pendingStops"`
	SouthWest    *RoutePoint            `json:"southWest,omitempty"`
	NorthEast    *RoutePoint            `json:"northEast,omitempty"`
	Centroid     *RoutePoint            `json:"centroid,omitempty"`
	LengthMeters float64                `json:"lengthMeters"`
}

// Coordinate is a latitude or longitude as clients send it: a JSON number,
// a numeric string or something unusable. Numeric is false for the latter
// and Value is then 0.
type Coordinate struct {
	Value   float64
	Numeric bool
	Raw     string
}

// NewCoordinate wraps a numeric value
func NewCoordinate(v float64) Coordinate {
	return Coordinate{Value: v, Numeric: true, Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// UnmarshalJSON never fails on a well-formed JSON value; unusable input is
// recorded as non-numeric and judged later.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	*c = Coordinate{}

	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	c.Raw = raw

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	c.Value = v
	c.Numeric = true

	return nil
}

// MarshalJSON writes the numeric value
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(c.Value, 'f', -1, 64)), nil
}
