package entity

import (
	"slices"
	"strings"
	"time"

	domainerrors "cleancity/internal/domain/errors"

	"github.com/google/uuid"
)

// AllotmentStatus is the lifecycle state of an allotment.
type AllotmentStatus string

const (
	AllotmentStatusPending               AllotmentStatus = "Pending"
	AllotmentStatusPendingAcknowledgment AllotmentStatus = "PendingAcknowledgment"
	AllotmentStatusCollected             AllotmentStatus = "Collected"
	AllotmentStatusOff                   AllotmentStatus = "Off"
)

// String returns the string representation of the status.
func (s AllotmentStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s AllotmentStatus) IsTerminal() bool {
	return s == AllotmentStatusCollected
}

// statusTokens are the values accepted on creation. Yes, No and Off are
// input aliases only; they never end up stored.
var statusTokens = []string{
	"Yes",
	"No",
	string(AllotmentStatusPending),
	string(AllotmentStatusCollected),
	string(AllotmentStatusPendingAcknowledgment),
	string(AllotmentStatusOff),
}

// NormalizeStatusToken matches raw case-insensitively against the accepted
// creation tokens and returns the canonical spelling. Empty means Pending.
func NormalizeStatusToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return string(AllotmentStatusPending), nil
	}

	for _, token := range statusTokens {
		if strings.EqualFold(raw, token) {
			return token, nil
		}
	}

	return "", domainerrors.ErrInvalidStatus.WithDetails("got " + raw)
}

// TodayStatus is the per-resident "has waste pending" flag.
type TodayStatus string

const (
	TodayStatusYes TodayStatus = "YES"
	TodayStatusNo  TodayStatus = "NO"
)

// ParseTodayStatus accepts yes/no in any case.
func ParseTodayStatus(raw string) (TodayStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(TodayStatusYes):
		return TodayStatusYes, true
	case string(TodayStatusNo):
		return TodayStatusNo, true
	default:
		return "", false
	}
}

// PickupState is the entry sub-state used by the hold_pending policy.
type PickupState string

const (
	PickupStateNone    PickupState = ""
	PickupStatePending PickupState = "Pending" // labour collected, waiting for the resident
)

// Resident metadata placeholders used when the caller leaves fields empty.
const (
	UnknownAddress  = "Address not available"
	UnknownUsername = "Unknown"
	UnknownContact  = "N/A"
)

// LocationEntry is one resident's collection record inside an allotment.
// Its identity is the pair (allotment, UserID).
type LocationEntry struct {
	UserID      string
	UserAddress string
	Username    string
	Contact     string
	Latitude    float64
	Longitude   float64

	TodayStatus     TodayStatus
	LabourCollected bool
	CollectedAt     *time.Time
	PickupState     PickupState

	CollectionAcknowledged bool
	AcknowledgedAt         *time.Time

	UserConfirmed       bool
	CollectionConfirmed bool
	ConfirmedAt         *time.Time
	ConfirmedBy         Role
}

// Collectable reports whether labour may mark this entry collected.
func (e *LocationEntry) Collectable() bool {
	return e.TodayStatus == TodayStatusYes && !e.LabourCollected
}

// Allotment is one scheduled assignment of a labour to a street for a
// date and time, with the per-resident records embedded.
type Allotment struct {
	ID uuid.UUID

	InchargerID       string
	InchargerName     string
	LabourID          string
	LabourName        string
	LabourPhoneNumber string

	Street string
	Date   string // YYYY-MM-DD
	Time   string

	Status          AllotmentStatus
	LocationData    []LocationEntry // insertion order, never reordered
	LabourCollected bool

	Completed   bool
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic concurrency token checked on every update.
	Version int64

	index map[string]int
}

// NewAllotmentParams carries everything needed to open an allotment.
type NewAllotmentParams struct {
	ID        uuid.UUID
	Incharger *Incharger
	Labour    *Labour

	// InchargerID and LabourID are stored exactly as the caller sent them.
	InchargerID string
	LabourID    string

	Street  string
	Date    string
	Time    string
	Entries []LocationEntry
	Now     time.Time
}

// NewAllotment builds a Pending allotment and derives its initial status.
func NewAllotment(p NewAllotmentParams) (*Allotment, error) {
	a := &Allotment{
		ID:                p.ID,
		InchargerID:       p.InchargerID,
		InchargerName:     p.Incharger.Name,
		LabourID:          p.LabourID,
		LabourName:        p.Labour.Name,
		LabourPhoneNumber: p.Labour.PhoneNumber,
		Street:            p.Street,
		Date:              p.Date,
		Time:              p.Time,
		Status:            AllotmentStatusPending,
		LocationData:      make([]LocationEntry, 0, len(p.Entries)),
		CreatedAt:         p.Now,
		UpdatedAt:         p.Now,
	}

	seen := make(map[string]struct{}, len(p.Entries))
	for _, entry := range p.Entries {
		if _, dup := seen[entry.UserID]; dup {
			return nil, domainerrors.ErrValidationFailed.WithDetails("duplicate userId " + entry.UserID)
		}
		seen[entry.UserID] = struct{}{}
		a.LocationData = append(a.LocationData, entry)
	}

	a.RecomputeStatus()

	return a, nil
}

// Entry returns the entry for userID. The returned pointer aliases the
// allotment's storage so callers mutate in place.
func (a *Allotment) Entry(userID string) (*LocationEntry, bool) {
	if len(a.index) != len(a.LocationData) {
		a.reindex()
	}

	i, ok := a.index[userID]
	if !ok {
		return nil, false
	}

	return &a.LocationData[i], true
}

func (a *Allotment) reindex() {
	a.index = make(map[string]int, len(a.LocationData))
	for i := range a.LocationData {
		a.index[a.LocationData[i].UserID] = i
	}
}

// Clone returns a copy that shares no mutable state with a.
func (a *Allotment) Clone() *Allotment {
	cp := *a
	cp.LocationData = slices.Clone(a.LocationData)
	cp.index = nil

	return &cp
}

// IsCompleted reports whether the allotment reached its terminal state.
func (a *Allotment) IsCompleted() bool {
	return a.Status.IsTerminal()
}

// AssignedTo reports whether the labour may act on this allotment.
func (a *Allotment) AssignedTo(l *Labour) bool {
	return l != nil && l.Matches(a.LabourID)
}

// OwnedBy reports whether the incharger created this allotment.
func (a *Allotment) OwnedBy(i *Incharger) bool {
	return i != nil && i.Matches(a.InchargerID)
}

// PendingEntries returns the entries still waiting for labour.
func (a *Allotment) PendingEntries() []LocationEntry {
	pending := make([]LocationEntry, 0, len(a.LocationData))
	for _, e := range a.LocationData {
		if e.Collectable() {
			pending = append(pending, e)
		}
	}

	return pending
}
