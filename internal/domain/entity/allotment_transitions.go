package entity

import (
	"strings"
	"time"

	domainerrors "cleancity/internal/domain/errors"
)

// CollectionPolicy decides what a labour collection does to an entry's
// todayStatus. Both behaviours exist in the field; which one is canonical
// still needs product sign-off, so it is configurable.
type CollectionPolicy string

const (
	// CollectionPolicyFlipToNo clears the resident's pending flag on collection.
	CollectionPolicyFlipToNo CollectionPolicy = "flip_to_no"
	// CollectionPolicyHoldPending keeps todayStatus YES and parks the entry
	// in PickupStatePending until the resident acknowledges.
	CollectionPolicyHoldPending CollectionPolicy = "hold_pending"
)

// DefaultCollectionPolicy is used when nothing is configured.
const DefaultCollectionPolicy = CollectionPolicyFlipToNo

// ParseCollectionPolicy validates a configured policy name.
func ParseCollectionPolicy(raw string) (CollectionPolicy, error) {
	switch CollectionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CollectionPolicyFlipToNo:
		return CollectionPolicyFlipToNo, nil
	case CollectionPolicyHoldPending:
		return CollectionPolicyHoldPending, nil
	default:
		return "", domainerrors.ErrValidationFailed.WithDetails("unknown collection policy " + raw)
	}
}

// DerivedStatus computes the status implied by the entries without
// mutating anything. It never yields Collected and never leaves it.
func (a *Allotment) DerivedStatus() AllotmentStatus {
	if a.IsCompleted() {
		return a.Status
	}

	hasPending := false
	allSatisfied := true
	for i := range a.LocationData {
		e := &a.LocationData[i]
		if e.TodayStatus == TodayStatusYes {
			hasPending = true
		}
		if !e.LabourCollected && e.TodayStatus != TodayStatusNo {
			allSatisfied = false
		}
	}

	if !hasPending || allSatisfied {
		return AllotmentStatusPendingAcknowledgment
	}

	return a.Status
}

// RecomputeStatus refreshes derived entry flags and the allotment status.
// It must run after every entry mutation.
func (a *Allotment) RecomputeStatus() AllotmentStatus {
	for i := range a.LocationData {
		e := &a.LocationData[i]
		if e.LabourCollected && e.UserConfirmed {
			e.CollectionConfirmed = true
		}
	}

	a.Status = a.DerivedStatus()

	return a.Status
}

// CollectEntry marks one resident's waste as collected by labour.
func (a *Allotment) CollectEntry(userID string, policy CollectionPolicy, now time.Time) (*LocationEntry, error) {
	if a.IsCompleted() {
		return nil, domainerrors.ErrAllotmentCompleted
	}

	e, ok := a.Entry(userID)
	if !ok {
		return nil, domainerrors.ErrResidentNotInAllotment.WithDetails("userId " + userID)
	}

	if !e.Collectable() {
		return nil, domainerrors.ErrEntryNotPending.WithDetails("userId " + userID)
	}

	e.markCollected(policy, now)
	a.touch(now)
	a.RecomputeStatus()

	return e, nil
}

// CollectAll marks every collectable entry as collected and returns the
// user ids that changed.
func (a *Allotment) CollectAll(policy CollectionPolicy, now time.Time) ([]string, error) {
	if a.IsCompleted() {
		return nil, domainerrors.ErrAllotmentCompleted
	}

	var collected []string
	for i := range a.LocationData {
		e := &a.LocationData[i]
		if !e.Collectable() {
			continue
		}
		e.markCollected(policy, now)
		collected = append(collected, e.UserID)
	}

	a.LabourCollected = true
	a.touch(now)
	a.RecomputeStatus()

	return collected, nil
}

func (e *LocationEntry) markCollected(policy CollectionPolicy, now time.Time) {
	e.LabourCollected = true
	if e.CollectedAt == nil {
		e.CollectedAt = stamp(now)
	}

	switch policy {
	case CollectionPolicyHoldPending:
		e.PickupState = PickupStatePending
	default:
		e.TodayStatus = TodayStatusNo
	}
}

// Acknowledge records the resident's claim that pickup happened and clears
// their pending flag, independent of the labour's own flag. On a completed
// allotment it is a no-op.
func (a *Allotment) Acknowledge(userID string, now time.Time) (*LocationEntry, error) {
	e, ok := a.Entry(userID)
	if !ok {
		return nil, domainerrors.ErrResidentNotInAllotment.WithDetails("userId " + userID)
	}

	if a.IsCompleted() {
		return e, nil
	}

	e.CollectionAcknowledged = true
	if e.AcknowledgedAt == nil {
		e.AcknowledgedAt = stamp(now)
	}
	e.TodayStatus = TodayStatusNo
	e.PickupState = PickupStateNone

	a.touch(now)
	a.RecomputeStatus()

	return e, nil
}

// Confirm records that a resident or the incharger affirms the collection.
// Once every entry is confirmed or was never pending, the allotment
// becomes Collected. On a completed allotment it is a no-op.
func (a *Allotment) Confirm(userID string, by Role, now time.Time) (*LocationEntry, error) {
	e, ok := a.Entry(userID)
	if !ok {
		return nil, domainerrors.ErrResidentNotInAllotment.WithDetails("userId " + userID)
	}

	if a.IsCompleted() {
		return e, nil
	}

	e.UserConfirmed = true
	if e.ConfirmedAt == nil {
		e.ConfirmedAt = stamp(now)
	}
	if e.ConfirmedBy == "" {
		e.ConfirmedBy = by
	}

	a.touch(now)
	a.RecomputeStatus()

	if a.allConfirmed() {
		a.complete(now)
	}

	return e, nil
}

func (a *Allotment) allConfirmed() bool {
	for i := range a.LocationData {
		e := &a.LocationData[i]
		if !e.CollectionConfirmed && e.TodayStatus != TodayStatusNo {
			return false
		}
	}

	return true
}

func (a *Allotment) complete(now time.Time) {
	a.Status = AllotmentStatusCollected
	a.Completed = true
	if a.CompletedAt == nil {
		a.CompletedAt = stamp(now)
	}
}

func (a *Allotment) touch(now time.Time) {
	if now.After(a.UpdatedAt) {
		a.UpdatedAt = now
	}
}

func stamp(t time.Time) *time.Time {
	return &t
}
