package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AllotmentModel is the GORM-specific struct for the 'allotments' table.
// Entries live in one jsonb column so a status recompute is a single row write.
type AllotmentModel struct {
	ID                uuid.UUID                              `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InchargerID       string                                 `gorm:"type:varchar(64);not null;index:idx_allotments_incharger_street"`
	InchargerName     string                                 `gorm:"type:varchar(255);not null"`
	LabourID          string                                 `gorm:"type:varchar(64);not null;index:idx_allotments_labour_schedule"`
	LabourName        string                                 `gorm:"type:varchar(255);not null"`
	LabourPhoneNumber string                                 `gorm:"type:varchar(32)"`
	Street            string                                 `gorm:"type:varchar(255);not null;index:idx_allotments_incharger_street"`
	Date              string                                 `gorm:"type:varchar(10);not null;index:idx_allotments_labour_schedule"`
	Time              string                                 `gorm:"type:varchar(16);not null;index:idx_allotments_labour_schedule"`
	Status            string                                 `gorm:"type:varchar(32);not null;index"`
	LocationData      datatypes.JSONSlice[LocationEntryModel] `gorm:"type:jsonb;not null"`
	LabourCollected   bool                                   `gorm:"not null;default:false"`
	Completed         bool                                   `gorm:"not null;default:false"`
	CompletedAt       *time.Time
	Version           int64 `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (AllotmentModel) TableName() string {
	return "allotments"
}

// LocationEntryModel is one element of AllotmentModel.LocationData.
type LocationEntryModel struct {
	UserID      string  `json:"userId"`
	UserAddress string  `json:"userAddress"`
	Username    string  `json:"username"`
	Contact     string  `json:"contact"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	TodayStatus     string     `json:"todayStatus"`
	LabourCollected bool       `json:"labourCollected"`
	CollectedAt     *time.Time `json:"collectedAt,omitempty"`
	PickupState     string     `json:"pickupState,omitempty"`

	CollectionAcknowledged bool       `json:"collectionAcknowledged"`
	AcknowledgedAt         *time.Time `json:"acknowledgedAt,omitempty"`

	UserConfirmed       bool       `json:"userConfirmed"`
	CollectionConfirmed bool       `json:"collectionConfirmed"`
	ConfirmedAt         *time.Time `json:"confirmedAt,omitempty"`
	ConfirmedBy         string     `json:"confirmedBy,omitempty"`
}
