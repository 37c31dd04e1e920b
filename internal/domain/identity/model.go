// Package identity implements the specialty catalog and the practitioner and
// patient profiles attached to accounts.
package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Specialty categories.
const (
	CategoryMedical = "medical"
	CategoryNursing = "nursing"
	CategoryBoth    = "both"
)

// Practitioner kinds.
const (
	KindDoctor = "doctor"
	KindNurse  = "nurse"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrSpecialtyTaken = errors.New("specialty name already in use")
	ErrProfileExists  = errors.New("account already has a profile")
)

// Specialty is a catalog entry practitioners can reference.
type Specialty struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ValidCategory reports whether category is a known specialty category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryMedical, CategoryNursing, CategoryBoth:
		return true
	}
	return false
}

// Practitioner is a doctor or nurse profile, one-to-one with an account of
// matching role. SpecialtyOther is a free-text override used when the catalog
// has no fitting entry.
type Practitioner struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	AccountID      uuid.UUID  `db:"account_id" json:"account_id"`
	Kind           string     `db:"kind" json:"kind"`
	SpecialtyID    *uuid.UUID `db:"specialty_id" json:"specialty_id,omitempty"`
	SpecialtyOther string     `db:"specialty_other" json:"specialty_other"`
	LicenseNumber  string     `db:"license_number" json:"license_number"`
	Bio            string     `db:"bio" json:"bio"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Patient is a patient profile, one-to-one with an account of role patient.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	AccountID             uuid.UUID  `db:"account_id" json:"account_id"`
	BirthDate             *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	BloodType             string     `db:"blood_type" json:"blood_type"`
	Allergies             string     `db:"allergies" json:"allergies"`
	EmergencyContactName  string     `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone string     `db:"emergency_contact_phone" json:"emergency_contact_phone"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// DoctorSummary is the public listing shape for active doctors.
type DoctorSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Specialty string    `json:"specialty"`
}
