package model

import "time"

// AvailabilityWindow is a published open-for-booking interval owned by one
// caregiver. Windows of the same caregiver never overlap; overlap attempts
// are rejected at publish time. Times are stored as UTC instants; TimeZone
// records the caregiver's zone at publish time for display purposes.
type AvailabilityWindow struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	CaregiverID string    `json:"caregiver_id" bson:"caregiver_id" validate:"required"`
	StartTime   time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	TimeZone    string    `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ReservationHold is a provisional, revocable hold on a caregiver's interval.
// A hold is created when a reservation succeeds and persists while its
// appointment is non-terminal, so the held-interval set covers both pending
// and committed bookings. The document id is the private half of the
// reservation token.
type ReservationHold struct {
	ID          string    `bson:"_id" json:"id"`
	CaregiverID string    `bson:"caregiver_id" json:"caregiver_id"`
	StartTime   time.Time `bson:"start_time" json:"start_time"`
	EndTime     time.Time `bson:"end_time" json:"end_time"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
