package entity

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityKeys lists every identifier a roster member answers to. Labour and
// inchargers are referenced by their internal id in some records and by
// their business id in others; both forms are equivalent everywhere.
type IdentityKeys []string

// Matches reports whether id is one of the keys. A uuid matches in any
// spelling uuid.Parse accepts.
func (k IdentityKeys) Matches(id string) bool {
	id = CanonicalIdentity(id)
	if id == "" {
		return false
	}

	return slices.Contains(k, id)
}

// CanonicalIdentity rewrites a uuid to its lowercase hyphenated form so the
// stored value equals the key the roster answers to. Business ids are only
// trimmed.
func CanonicalIdentity(id string) string {
	id = strings.TrimSpace(id)
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}

	return id
}

func newIdentityKeys(id uuid.UUID, businessID string) IdentityKeys {
	keys := IdentityKeys{id.String()}
	if businessID != "" && businessID != id.String() {
		keys = append(keys, businessID)
	}

	return keys
}

// Incharger is a supervisor responsible for an area and its labour.
type Incharger struct {
	ID          uuid.UUID
	BusinessID  string // e.g. "INC-0007"
	Name        string
	PhoneNumber string
	Area        string
	CreatedAt   time.Time
}

// Keys returns both identifier forms of the incharger.
func (i *Incharger) Keys() IdentityKeys {
	return newIdentityKeys(i.ID, i.BusinessID)
}

// Matches reports whether id refers to this incharger.
func (i *Incharger) Matches(id string) bool {
	return i.Keys().Matches(id)
}

// Labour is a field worker who performs the physical collection.
type Labour struct {
	ID          uuid.UUID
	BusinessID  string // e.g. "LAB-0042"
	Name        string
	PhoneNumber string
	InchargerID uuid.UUID
	Streets     []string
	DeviceToken string // push notification target, optional
	CreatedAt   time.Time
}

// Keys returns both identifier forms of the labour.
func (l *Labour) Keys() IdentityKeys {
	return newIdentityKeys(l.ID, l.BusinessID)
}

// Matches reports whether id refers to this labour.
func (l *Labour) Matches(id string) bool {
	return l.Keys().Matches(id)
}

// ResidentStatus is the registry flag telling whether a resident has waste
// waiting today.
type ResidentStatus struct {
	UserID      string
	Street      string
	TodayStatus TodayStatus
	UpdatedAt   time.Time
}
