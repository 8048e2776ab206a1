package model

import "time"

// Caregiver is the scheduler's view of a caregiver profile: the declared
// specialties used for the delegated booking check, the hourly rate the
// price quote is computed from, and the current cancellation policy that
// gets snapshotted onto new appointments. Account data (credentials,
// verification, contact details) lives elsewhere.
type Caregiver struct {
	ID              string             `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	DisplayName     string             `json:"display_name" bson:"display_name" validate:"required,min=2,max=100"`
	Specialties     []Specialty        `json:"specialties" bson:"specialties" validate:"required,min=1,dive,specialty"`
	HourlyRateCents int64              `json:"hourly_rate_cents" bson:"hourly_rate_cents" validate:"required,min=1"`
	Currency        string             `json:"currency" bson:"currency" validate:"required,iso4217"`
	TimeZone        string             `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	Policy          CancellationPolicy `json:"policy" bson:"policy"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Offers reports whether the caregiver has declared the specialty.
func (c *Caregiver) Offers(s Specialty) bool {
	for _, declared := range c.Specialties {
		if declared == s {
			return true
		}
	}
	return false
}

// CaregiverUpdate is a partial profile update; nil/zero fields are left
// unchanged.
type CaregiverUpdate struct {
	DisplayName     string              `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	Specialties     []Specialty         `json:"specialties,omitempty" validate:"omitempty,min=1,dive,specialty"`
	HourlyRateCents *int64              `json:"hourly_rate_cents,omitempty" validate:"omitempty,min=1"`
	Currency        string              `json:"currency,omitempty" validate:"omitempty,iso4217"`
	TimeZone        string              `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	Policy          *CancellationPolicy `json:"policy,omitempty"`
}
