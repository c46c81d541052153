package entity

import (
	"strings"
	"testing"
	"time"

	domainerrors "cleancity/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestAllotment(t *testing.T, entries ...LocationEntry) *Allotment {
	t.Helper()

	incharger := &Incharger{ID: uuid.New(), BusinessID: "INC-1", Name: "Meena"}
	labour := &Labour{ID: uuid.New(), BusinessID: "L1", Name: "Ravi", PhoneNumber: "9000000001", InchargerID: incharger.ID}

	a, err := NewAllotment(NewAllotmentParams{
		ID:          uuid.New(),
		Incharger:   incharger,
		Labour:      labour,
		InchargerID: incharger.BusinessID,
		LabourID:    labour.BusinessID,
		Street:      "MG Road",
		Date:        "2024-01-01",
		Time:        "09:00",
		Entries:     entries,
		Now:         testNow,
	})
	require.NoError(t, err)

	return a
}

func entry(userID string, status TodayStatus) LocationEntry {
	return LocationEntry{UserID: userID, TodayStatus: status}
}

func TestNormalizeStatusToken(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "", want: "Pending"},
		{raw: "yes", want: "Yes"},
		{raw: "NO", want: "No"},
		{raw: "pending", want: "Pending"},
		{raw: "pendingacknowledgment", want: "PendingAcknowledgment"},
		{raw: " collected ", want: "Collected"},
		{raw: "off", want: "Off"},
		{raw: "done", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeStatusToken(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, domainerrors.ErrInvalidStatus)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCollectionPolicy(t *testing.T) {
	p, err := ParseCollectionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollectionPolicyFlipToNo, p)

	p, err = ParseCollectionPolicy("HOLD_PENDING")
	require.NoError(t, err)
	assert.Equal(t, CollectionPolicyHoldPending, p)

	_, err = ParseCollectionPolicy("maybe")
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestNewAllotment_RejectsDuplicateUser(t *testing.T) {
	_, err := NewAllotment(NewAllotmentParams{
		ID:        uuid.New(),
		Incharger: &Incharger{ID: uuid.New()},
		Labour:    &Labour{ID: uuid.New()},
		Entries:   []LocationEntry{entry("U1", TodayStatusYes), entry("U1", TodayStatusNo)},
		Now:       testNow,
	})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestNewAllotment_InitialDerivation(t *testing.T) {
	pending := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusNo))
	assert.Equal(t, AllotmentStatusPending, pending.Status)

	nothingToDo := newTestAllotment(t, entry("U1", TodayStatusNo))
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, nothingToDo.Status)

	empty := newTestAllotment(t)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, empty.Status)
}

func TestDerivedStatus_Idempotent(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusYes))

	first := a.RecomputeStatus()
	second := a.RecomputeStatus()
	assert.Equal(t, first, second)

	_, err := a.CollectEntry("U1", CollectionPolicyFlipToNo, testNow)
	require.NoError(t, err)
	assert.Equal(t, a.RecomputeStatus(), a.RecomputeStatus())
	assert.Equal(t, AllotmentStatusPending, a.Status)
}

func TestCollectEntry_FlipToNo(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))

	e, err := a.CollectEntry("U1", CollectionPolicyFlipToNo, testNow)
	require.NoError(t, err)
	assert.True(t, e.LabourCollected)
	assert.Equal(t, TodayStatusNo, e.TodayStatus)
	require.NotNil(t, e.CollectedAt)
	assert.Equal(t, testNow, *e.CollectedAt)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, a.Status)
}

func TestCollectEntry_HoldPending(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusYes))

	e, err := a.CollectEntry("U1", CollectionPolicyHoldPending, testNow)
	require.NoError(t, err)
	assert.True(t, e.LabourCollected)
	assert.Equal(t, TodayStatusYes, e.TodayStatus)
	assert.Equal(t, PickupStatePending, e.PickupState)
	assert.Equal(t, AllotmentStatusPending, a.Status)

	_, err = a.CollectEntry("U2", CollectionPolicyHoldPending, testNow)
	require.NoError(t, err)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, a.Status)
}

func TestCollectEntry_NoFalseCollection(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusNo), entry("U2", TodayStatusYes))
	before := a.LocationData[0]
	statusBefore := a.Status

	_, err := a.CollectEntry("U1", CollectionPolicyFlipToNo, testNow)
	require.ErrorIs(t, err, domainerrors.ErrEntryNotPending)
	assert.Equal(t, before, a.LocationData[0])
	assert.Equal(t, statusBefore, a.Status)
}

func TestCollectEntry_Twice(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))

	_, err := a.CollectEntry("U1", CollectionPolicyHoldPending, testNow)
	require.NoError(t, err)

	_, err = a.CollectEntry("U1", CollectionPolicyHoldPending, testNow.Add(time.Hour))
	require.ErrorIs(t, err, domainerrors.ErrEntryNotPending)
	assert.Equal(t, testNow, *a.LocationData[0].CollectedAt)
}

func TestCollectEntry_UnknownResident(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))

	_, err := a.CollectEntry("U9", CollectionPolicyFlipToNo, testNow)
	require.ErrorIs(t, err, domainerrors.ErrResidentNotInAllotment)
}

func TestCollectAll_Scenario(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusNo))
	require.Equal(t, AllotmentStatusPending, a.Status)

	collected, err := a.CollectAll(CollectionPolicyFlipToNo, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, collected)

	u1, _ := a.Entry("U1")
	assert.True(t, u1.LabourCollected)
	assert.Equal(t, TodayStatusNo, u1.TodayStatus)
	assert.NotNil(t, u1.CollectedAt)

	u2, _ := a.Entry("U2")
	assert.False(t, u2.LabourCollected)
	assert.Nil(t, u2.CollectedAt)

	assert.True(t, a.LabourCollected)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, a.Status)
}

func TestCollectAll_NothingPendingStillFlagsAllotment(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusNo))

	collected, err := a.CollectAll(CollectionPolicyFlipToNo, testNow)
	require.NoError(t, err)
	assert.Empty(t, collected)
	assert.True(t, a.LabourCollected)
}

func TestAcknowledgeThenConfirm_Completes(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))

	e, err := a.Acknowledge("U1", testNow)
	require.NoError(t, err)
	assert.True(t, e.CollectionAcknowledged)
	assert.Equal(t, TodayStatusNo, e.TodayStatus)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, a.Status)

	later := testNow.Add(time.Hour)
	_, err = a.Confirm("U1", RoleIncharger, later)
	require.NoError(t, err)

	assert.Equal(t, AllotmentStatusCollected, a.Status)
	assert.True(t, a.Completed)
	require.NotNil(t, a.CompletedAt)
	assert.Equal(t, later, *a.CompletedAt)
	assert.Equal(t, RoleIncharger, a.LocationData[0].ConfirmedBy)
}

func TestConfirm_WaitsForEveryPendingEntry(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusYes), entry("U3", TodayStatusNo))

	_, err := a.CollectAll(CollectionPolicyHoldPending, testNow)
	require.NoError(t, err)

	_, err = a.Confirm("U1", RoleUser, testNow)
	require.NoError(t, err)
	assert.True(t, a.LocationData[0].CollectionConfirmed)
	assert.False(t, a.Completed)
	assert.Equal(t, AllotmentStatusPendingAcknowledgment, a.Status)

	_, err = a.Confirm("U2", RoleUser, testNow)
	require.NoError(t, err)
	assert.True(t, a.Completed)
	assert.Equal(t, AllotmentStatusCollected, a.Status)
}

func TestConfirm_WithoutLabourCollectionIsNotCollectionConfirmed(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))

	e, err := a.Confirm("U1", RoleUser, testNow)
	require.NoError(t, err)
	assert.True(t, e.UserConfirmed)
	assert.False(t, e.CollectionConfirmed)
	assert.False(t, a.Completed)

	_, err = a.CollectEntry("U1", CollectionPolicyHoldPending, testNow)
	require.NoError(t, err)
	assert.True(t, a.LocationData[0].CollectionConfirmed)
}

func TestCompletedAllotment(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))
	_, err := a.Acknowledge("U1", testNow)
	require.NoError(t, err)
	_, err = a.Confirm("U1", RoleUser, testNow)
	require.NoError(t, err)
	require.True(t, a.Completed)

	_, err = a.CollectEntry("U1", CollectionPolicyFlipToNo, testNow)
	require.ErrorIs(t, err, domainerrors.ErrAllotmentCompleted)

	_, err = a.CollectAll(CollectionPolicyFlipToNo, testNow)
	require.ErrorIs(t, err, domainerrors.ErrAllotmentCompleted)

	_, err = a.Acknowledge("U1", testNow.Add(time.Hour))
	require.NoError(t, err)
	_, err = a.Confirm("U1", RoleIncharger, testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, AllotmentStatusCollected, a.RecomputeStatus())
	assert.Equal(t, testNow, *a.CompletedAt)
}

func TestTimestampsAreMonotonic(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes), entry("U2", TodayStatusYes))

	t0 := testNow
	t1 := testNow.Add(time.Minute)
	t2 := testNow.Add(2 * time.Minute)

	_, err := a.Acknowledge("U1", t1)
	require.NoError(t, err)
	_, err = a.Acknowledge("U1", t0)
	require.NoError(t, err)
	_, err = a.Acknowledge("U1", t2)
	require.NoError(t, err)

	_, err = a.Confirm("U1", RoleUser, t1)
	require.NoError(t, err)
	_, err = a.Confirm("U1", RoleIncharger, t2)
	require.NoError(t, err)

	u1, _ := a.Entry("U1")
	assert.Equal(t, t1, *u1.AcknowledgedAt)
	assert.Equal(t, t1, *u1.ConfirmedAt)
	assert.Equal(t, RoleUser, u1.ConfirmedBy)

	updated := a.UpdatedAt
	_, err = a.Acknowledge("U2", t0)
	require.NoError(t, err)
	assert.Equal(t, updated, a.UpdatedAt)
}

func TestAssignmentMatchesEitherIdentifier(t *testing.T) {
	labour := &Labour{ID: uuid.New(), BusinessID: "L1"}
	other := &Labour{ID: uuid.New(), BusinessID: "L2"}

	byBusiness := &Allotment{LabourID: "L1"}
	byInternal := &Allotment{LabourID: labour.ID.String()}

	for _, a := range []*Allotment{byBusiness, byInternal} {
		assert.True(t, a.AssignedTo(labour))
		assert.False(t, a.AssignedTo(other))
		assert.False(t, a.AssignedTo(nil))
	}
}

func TestCanonicalIdentity(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "canonical uuid", in: id.String(), want: id.String()},
		{name: "uppercase uuid", in: strings.ToUpper(id.String()), want: id.String()},
		{name: "urn form", in: "urn:uuid:" + id.String(), want: id.String()},
		{name: "braced", in: "{" + id.String() + "}", want: id.String()},
		{name: "business id", in: "  L1 ", want: "L1"},
		{name: "empty", in: " ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalIdentity(tt.in))
		})
	}

	labour := &Labour{ID: id, BusinessID: "L1"}
	assert.True(t, labour.Matches(strings.ToUpper(id.String())))
	assert.False(t, labour.Matches("l1"), "business ids stay case-sensitive")
}

func TestEntryIndexFollowsReplacedData(t *testing.T) {
	a := newTestAllotment(t, entry("U1", TodayStatusYes))
	_, ok := a.Entry("U1")
	require.True(t, ok)

	a.LocationData = append(a.LocationData, entry("U2", TodayStatusYes))
	e, ok := a.Entry("U2")
	require.True(t, ok)
	assert.Equal(t, "U2", e.UserID)
}
