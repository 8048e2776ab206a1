package model

import "time"

// BookingRequest is the ephemeral input to the booking orchestrator. It is
// never persisted on its own - it either becomes an Appointment or is
// rejected.
type BookingRequest struct {
	CaregiverID  string    `json:"caregiver_id" validate:"required"`
	CareseekerID string    `json:"careseeker_id" validate:"required"`
	Specialty    Specialty `json:"specialty" validate:"required,specialty"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Note         string    `json:"note,omitempty" validate:"omitempty,max=500"`
}
