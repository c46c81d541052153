package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InchargerModel is the GORM-specific struct for the 'inchargers' table.
type InchargerModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BusinessID  string    `gorm:"type:varchar(64);uniqueIndex"`
	Name        string    `gorm:"type:varchar(255);not null"`
	PhoneNumber string    `gorm:"type:varchar(32)"`
	Area        string    `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (InchargerModel) TableName() string {
	return "inchargers"
}

// LabourModel is the GORM-specific struct for the 'labours' table.
type LabourModel struct {
	ID          uuid.UUID                  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BusinessID  string                     `gorm:"type:varchar(64);uniqueIndex"`
	Name        string                     `gorm:"type:varchar(255);not null"`
	PhoneNumber string                     `gorm:"type:varchar(32)"`
	InchargerID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Streets     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	DeviceToken string                     `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (LabourModel) TableName() string {
	return "labours"
}

// ResidentStatusModel is the GORM-specific struct for the 'resident_statuses' table.
type ResidentStatusModel struct {
	UserID      string `gorm:"type:varchar(64);primaryKey"`
	Street      string `gorm:"type:varchar(255);primaryKey"`
	TodayStatus string `gorm:"type:varchar(3);not null;default:'NO'"`
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (ResidentStatusModel) TableName() string {
	return "resident_statuses"
}

// All lists every model owned by this service, in migration order.
func All() []any {
	return []any{
		&InchargerModel{},
		&LabourModel{},
		&ResidentStatusModel{},
		&AllotmentModel{},
	}
}
