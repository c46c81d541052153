package handler

import (
	"time"

	"cleancity/internal/domain/entity"

	"github.com/google/uuid"
)

// LocationEntryView is one resident entry as returned to clients
type LocationEntryView struct {
	UserID                 string             `json:"userId"`
	UserAddress            string             `json:"userAddress"`
	Username               string             `json:"username"`
	Contact                string             `json:"contact"`
	Latitude               float64            `json:"latitude"`
	Longitude              float64            `json:"longitude"`
	TodayStatus            entity.TodayStatus `json:"todayStatus"`
	PickupState            entity.PickupState `json:"pickupState,omitempty"`
	LabourCollected        bool               `json:"labourCollected"`
	CollectedAt            *time.Time         `json:"collectedAt,omitempty"`
	CollectionAcknowledged bool               `json:"collectionAcknowledged"`
	AcknowledgedAt         *time.Time         `json:"acknowledgedAt,omitempty"`
	UserConfirmed          bool               `json:"userConfirmed"`
	CollectionConfirmed    bool               `json:"collectionConfirmed"`
	ConfirmedAt            *time.Time         `json:"confirmedAt,omitempty"`
	ConfirmedBy            entity.Role        `json:"confirmedBy,omitempty"`
}

// AllotmentView is an allotment as returned to clients
type AllotmentView struct {
	ID                uuid.UUID              `json:"id"`
	InchargerID       string                 `json:"inchargerId"`
	InchargerName     string                 `json:"inchargerName"`
	LabourID          string                 `json:"labourId"`
	LabourName        string                 `json:"labourName"`
	LabourPhoneNumber string                 `json:"labourPhoneNumber"`
	Street            string                 `json:"street"`
	Date              string                 `json:"date"`
	Time              string                 `json:"time"`
	Status            entity.AllotmentStatus `json:"status"`
	LocationData      []LocationEntryView    `json:"locationData"`
	LabourCollected   bool                   `json:"labourCollected"`
	Completed         bool                   `json:"completed"`
	CompletedAt       *time.Time             `json:"completedAt,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// LabourView is a roster labour as returned to clients
type LabourView struct {
	ID          uuid.UUID `json:"id"`
	BusinessID  string    `json:"labourId"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Streets     []string  `json:"streets"`
}

func toAllotmentView(a *entity.Allotment) AllotmentView {
	entries := make([]LocationEntryView, 0, len(a.LocationData))
	for _, e := range a.LocationData {
		entries = append(entries, LocationEntryView{
			UserID:                 e.UserID,
			UserAddress:            e.UserAddress,
			Username:               e.Username,
			Contact:                e.Contact,
			Latitude:               e.Latitude,
			Longitude:              e.Longitude,
			TodayStatus:            e.TodayStatus,
			PickupState:            e.PickupState,
			LabourCollected:        e.LabourCollected,
			CollectedAt:            e.CollectedAt,
			CollectionAcknowledged: e.CollectionAcknowledged,
			AcknowledgedAt:         e.AcknowledgedAt,
			UserConfirmed:          e.UserConfirmed,
			CollectionConfirmed:    e.CollectionConfirmed,
			ConfirmedAt:            e.ConfirmedAt,
			ConfirmedBy:            e.ConfirmedBy,
		})
	}

	return AllotmentView{
		ID:                a.ID,
		InchargerID:       a.InchargerID,
		InchargerName:     a.InchargerName,
		LabourID:          a.LabourID,
		LabourName:        a.LabourName,
		LabourPhoneNumber: a.LabourPhoneNumber,
		Street:            a.Street,
		Date:              a.Date,
		Time:              a.Time,
		Status:            a.Status,
		LocationData:      entries,
		LabourCollected:   a.LabourCollected,
		Completed:         a.Completed,
		CompletedAt:       a.CompletedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toAllotmentViews(allotments []*entity.Allotment) []AllotmentView {
	views := make([]AllotmentView, 0, len(allotments))
	for _, a := range allotments {
		views = append(views, toAllotmentView(a))
	}

	return views
}

func toLabourViews(labours []*entity.Labour) []LabourView {
	views := make([]LabourView, 0, len(labours))
	for _, l := range labours {
		streets := l.Streets
		if streets == nil {
			streets = []string{}
		}
		views = append(views, LabourView{
			ID:          l.ID,
			BusinessID:  l.BusinessID,
			Name:        l.Name,
			PhoneNumber: l.PhoneNumber,
			Streets:     streets,
		})
	}

	return views
}
